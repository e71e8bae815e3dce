package models

import (
	"strings"
	"time"

	"form95/internal/fieldmap"

	"gorm.io/gorm"
)

type ClaimStatus string

const (
	ClaimStatusDraft ClaimStatus = "draft"
	ClaimStatusFinal ClaimStatus = "final"
)

type Claim struct {
	BaseUUIDModel
	DocumentFilename string `gorm:"type:varchar(255);not null;uniqueIndex:idx_claims_document_filename" json:"documentFilename"`

	Name            string `gorm:"type:text" json:"name"`
	Address         string `gorm:"type:text" json:"address"`
	City            string `gorm:"type:text" json:"city"`
	State           string `gorm:"type:text" json:"state"`
	Zip             string `gorm:"type:text" json:"zip"`
	Email           string `gorm:"type:text;index" json:"email"`
	Phone           string `gorm:"type:text" json:"phone"`
	DateOfBirth     string `gorm:"type:text" json:"dateOfBirth"`
	MaritalStatus   string `gorm:"type:text" json:"maritalStatus"`
	EmploymentType  string `gorm:"type:text" json:"employmentType"`
	EmploymentOther string `gorm:"type:text" json:"employmentOther"`

	Agency              string `gorm:"type:text" json:"agency"`
	IncidentDate        string `gorm:"type:text" json:"incidentDate"`
	IncidentTime        string `gorm:"type:text" json:"incidentTime"`
	BasisOfClaim        string `gorm:"type:text" json:"basisOfClaim"`
	NatureOfInjury      string `gorm:"type:text" json:"natureOfInjury"`
	PropertyOwner       string `gorm:"type:text" json:"propertyOwner"`
	PropertyDescription string `gorm:"type:text" json:"propertyDescription"`
	WitnessName         string `gorm:"type:text" json:"witnessName"`
	WitnessAddress      string `gorm:"type:text" json:"witnessAddress"`
	HasInsurance        bool   `gorm:"default:false" json:"hasInsurance"`
	InsurerName         string `gorm:"type:text" json:"insurerName"`
	PolicyNumber        string `gorm:"type:text" json:"policyNumber"`

	PropertyDamage float64 `gorm:"default:0" json:"propertyDamage"`
	PersonalInjury float64 `gorm:"default:0" json:"personalInjury"`
	WrongfulDeath  float64 `gorm:"default:0" json:"wrongfulDeath"`
	Total          float64 `gorm:"default:0" json:"total"`

	Signature string     `gorm:"type:text" json:"signature"`
	SignedAt  *time.Time `json:"signedAt"`

	Status        ClaimStatus `gorm:"type:varchar(32);default:draft;index" json:"status"`
	DocumentError string      `gorm:"type:text" json:"documentError"`
}

func (Claim) TableName() string {
	return "claims"
}

// BeforeSave recomputes the total on every write; the stored value is
// never taken from input.
func (c *Claim) BeforeSave(tx *gorm.DB) error {
	if err := c.BaseUUIDModel.BeforeSave(tx); err != nil {
		return err
	}
	c.RecalculateTotal()
	return nil
}

func (c *Claim) RecalculateTotal() {
	c.PropertyDamage = fieldmap.RoundCents(c.PropertyDamage)
	c.PersonalInjury = fieldmap.RoundCents(c.PersonalInjury)
	c.WrongfulDeath = fieldmap.RoundCents(c.WrongfulDeath)
	c.Total = fieldmap.RoundCents(c.PropertyDamage + c.PersonalInjury + c.WrongfulDeath)
}

func (c *Claim) Signed() bool {
	return c.Signature != "" && c.SignedAt != nil
}

// ApplyIdentity copies the claimant fields that only feed the combined
// claimant block and so never appear in the field map by column.
func (c *Claim) ApplyIdentity(raw map[string]string) {
	c.Name = strings.TrimSpace(raw[fieldmap.InputName])
	c.Address = strings.TrimSpace(raw[fieldmap.InputAddress])
	c.City = strings.TrimSpace(raw[fieldmap.InputCity])
	c.State = strings.TrimSpace(raw[fieldmap.InputState])
	c.Zip = strings.TrimSpace(raw[fieldmap.InputZip])
	c.Email = fieldmap.NormalizeEmail(raw[fieldmap.InputEmail])
	c.DocumentFilename = fieldmap.DocumentFilename(c.Email)
}

// ApplyFieldMap copies every persisted field from a canonical map. Fields
// absent from the map keep their current value.
func (c *Claim) ApplyFieldMap(fm fieldmap.FieldMap) {
	for column, value := range fm.ByColumn() {
		c.setColumn(column, value)
	}
	c.RecalculateTotal()
}

func (c *Claim) setColumn(column string, value fieldmap.Value) {
	switch column {
	case "agency":
		c.Agency = value.Text
	case "employment_type":
		c.EmploymentType = value.Text
	case "employment_other":
		c.EmploymentOther = value.Text
	case "date_of_birth":
		c.DateOfBirth = value.Text
	case "marital_status":
		c.MaritalStatus = value.Text
	case "incident_date":
		c.IncidentDate = value.Text
	case "incident_time":
		c.IncidentTime = value.Text
	case "basis_of_claim":
		c.BasisOfClaim = value.Text
	case "property_owner":
		c.PropertyOwner = value.Text
	case "property_description":
		c.PropertyDescription = value.Text
	case "nature_of_injury":
		c.NatureOfInjury = value.Text
	case "witness_name":
		c.WitnessName = value.Text
	case "witness_address":
		c.WitnessAddress = value.Text
	case "property_damage":
		c.PropertyDamage = amount(value.Text)
	case "personal_injury":
		c.PersonalInjury = amount(value.Text)
	case "wrongful_death":
		c.WrongfulDeath = amount(value.Text)
	case "signature":
		c.Signature = value.Text
	case "phone":
		c.Phone = fieldmap.FormatPhone(value.Text)
	case "has_insurance":
		c.HasInsurance = value.Checked
	case "insurer_name":
		c.InsurerName = value.Text
	case "policy_number":
		c.PolicyNumber = value.Text
	}
}

func amount(text string) float64 {
	value, _ := fieldmap.ParseAmount(text)
	return value
}

// Input rebuilds the raw form input a claim was mapped from, for
// regeneration and administrative edits.
func (c *Claim) Input() map[string]string {
	insurance := "no"
	if c.HasInsurance {
		insurance = "yes"
	}

	raw := map[string]string{
		fieldmap.InputAgency:              c.Agency,
		fieldmap.InputName:                c.Name,
		fieldmap.InputAddress:             c.Address,
		fieldmap.InputCity:                c.City,
		fieldmap.InputState:               c.State,
		fieldmap.InputZip:                 c.Zip,
		fieldmap.InputEmail:               c.Email,
		fieldmap.InputEmploymentType:      c.EmploymentType,
		fieldmap.InputEmploymentOther:     c.EmploymentOther,
		fieldmap.InputDateOfBirth:         c.DateOfBirth,
		fieldmap.InputMaritalStatus:       c.MaritalStatus,
		fieldmap.InputIncidentDate:        c.IncidentDate,
		fieldmap.InputIncidentTime:        c.IncidentTime,
		fieldmap.InputBasisOfClaim:        c.BasisOfClaim,
		fieldmap.InputPropertyOwner:       c.PropertyOwner,
		fieldmap.InputPropertyDescription: c.PropertyDescription,
		fieldmap.InputNatureOfInjury:      c.NatureOfInjury,
		fieldmap.InputWitnessName:         c.WitnessName,
		fieldmap.InputWitnessAddress:      c.WitnessAddress,
		fieldmap.InputPropertyDamage:      fieldmap.FormatAmount(c.PropertyDamage),
		fieldmap.InputPersonalInjury:      fieldmap.FormatAmount(c.PersonalInjury),
		fieldmap.InputWrongfulDeath:       fieldmap.FormatAmount(c.WrongfulDeath),
		fieldmap.InputSignature:           c.Signature,
		fieldmap.InputPhone:               c.Phone,
		fieldmap.InputInsuranceYes:        insurance,
		fieldmap.InputInsurerName:         c.InsurerName,
		fieldmap.InputPolicyNumber:        c.PolicyNumber,
	}
	if c.SignedAt != nil {
		raw[fieldmap.InputDateSigned] = fieldmap.FormatDate(*c.SignedAt)
	}
	return raw
}
