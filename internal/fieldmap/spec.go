package fieldmap

import "strings"

type Kind string

const (
	KindText     Kind = "text"
	KindCombined Kind = "combined"
	KindCurrency Kind = "currency"
	KindCheckbox Kind = "checkbox"
	KindDate     Kind = "date"
)

type Stage string

const (
	StageDraft Stage = "draft"
	StageFinal Stage = "final"
)

// Raw form keys accepted from the intake flow.
const (
	InputAgency              = "field1_agency"
	InputName                = "field2_name"
	InputAddress             = "field2_address"
	InputCity                = "field2_city"
	InputState               = "field2_state"
	InputZip                 = "field2_zip"
	InputEmail               = "field2_email"
	InputEmploymentType      = "field3_type_employment"
	InputEmploymentOther     = "field3_other_specify"
	InputDateOfBirth         = "field_pdf_4_dob"
	InputMaritalStatus       = "field_pdf_5_marital_status"
	InputIncidentDate        = "field6_date_of_incident"
	InputIncidentTime        = "field7_time_of_incident"
	InputBasisOfClaim        = "field8_basis_of_claim"
	InputPropertyOwner       = "field9_owner_name_address"
	InputPropertyDescription = "field9_property_damage_description"
	InputNatureOfInjury      = "field10_nature_of_injury"
	InputWitnessName         = "field11_witness_name"
	InputWitnessAddress      = "field11_witness_address"
	InputPropertyDamage      = "field12a_property_damage_amount"
	InputPersonalInjury      = "field12b_personal_injury_amount"
	InputWrongfulDeath       = "field12c_wrongful_death_amount"
	InputTotal               = "field12d_total_amount"
	InputSignature           = "field13a_signature"
	InputPhone               = "field_pdf_13b_phone"
	InputDateSigned          = "field14_date_signed"
	InputInsuranceYes        = "insurance_yes"
	InputInsurerName         = "field15_insurer_name"
	InputPolicyNumber        = "field15_policy_number"
)

// Document field names in the SF-95 template.
const (
	FieldAgency              = "1 Submit to Appropriate Federal Agency"
	FieldClaimant            = "2 Name address of claimant and claimants personal representative if any See instructions on reverse Number Street City State and Zip code"
	FieldEmploymentType      = "3 TYPE OF EMPLOYMENT"
	FieldEmploymentOther     = "3 OTHER SPECIFY"
	FieldDateOfBirth         = "4 DATE OF BIRTH"
	FieldMaritalStatus       = "5 MARITAL STATUS"
	FieldIncidentDate        = "6 DATE AND DAY OF ACCIDENT"
	FieldIncidentTime        = "7 TIME AM OR PM"
	FieldBasisOfClaim        = "8 BASIS OF CLAIM State in detail the known facts and circumstances attending the damage injury or death identifying persons and property involved the place of occurrence and the cause thereof Use additional pages if necessary"
	FieldPropertyOwner       = "NAME AND ADDRESS OF OWNER IF OTHER THAN CLAIMANT Number Street City State and Zip Code"
	FieldPropertyDescription = "BRIEFLY DESCRIBE THE PROPERTY NATURE AND EXTENT OF THE DAMAGE AND THE LOCATION OF WHERE THE PROPERTY MAY BE INSPECTED See instructions on reverse side"
	FieldNatureOfInjury      = "STATE THE NATURE AND EXTENT OF EACH INJURY OR CAUSE OF DEATH WHICH FORMS THE BASIS OF THE CLAIM  IF OTHER THAN CLAIMANT STATE THE NAME OF THE INJURED PERSON OR DECEDENT"
	FieldWitnessName         = "NAMERow1"
	FieldWitnessAddress      = "ADDRESS Number Street City State and Zip CodeRow1"
	FieldPropertyDamage      = "a PROPERTY DAMAGE[0]"
	FieldPersonalInjury      = "b PERSONAL INJURY[0]"
	FieldWrongfulDeath       = "c WRONGFUL DEATH[0]"
	FieldTotal               = "d TOTAL Failure to specify may cause forfeiture of your rights[0]"
	FieldSignature           = "13a SIGNATURE OF CLAIMANT See instructions on reverse side[0]"
	FieldPhone               = "13b PHONE NUMBER OF PERSON SIGNING FORM"
	FieldDateSigned          = "14 DATE OF SIGNATURE"
	FieldInsuranceYes        = "15 INSURANCE YES"
	FieldInsuranceNo         = "15 INSURANCE NO"
	FieldInsurerName         = "15 NAME OF INSURER"
	FieldPolicyNumber        = "15 POLICY NUMBER"
)

// Spec is one row of the field table. Fields with Derive set ignore raw
// input and are computed from the values resolved before them.
type Spec struct {
	Key     string
	Input   string
	Column  string
	Kind    Kind
	Default string
	// Signature fields are the only ones overlaid at the final stage.
	Signature bool
	Derive    func(resolved map[string]string) (string, bool)
}

const DefaultAgency = "United States Capitol Police\n119 D Street, NE\nWashington, DC 20510"

var Fields = []Spec{
	{Key: FieldAgency, Input: InputAgency, Column: "agency", Kind: KindText, Default: DefaultAgency},
	{Key: FieldClaimant, Kind: KindCombined, Derive: claimantBlock},
	{Key: FieldEmploymentType, Input: InputEmploymentType, Column: "employment_type", Kind: KindText, Default: "Civilian"},
	{Key: FieldEmploymentOther, Input: InputEmploymentOther, Column: "employment_other", Kind: KindText},
	{Key: FieldDateOfBirth, Input: InputDateOfBirth, Column: "date_of_birth", Kind: KindDate},
	{Key: FieldMaritalStatus, Input: InputMaritalStatus, Column: "marital_status", Kind: KindText, Default: "Single"},
	{Key: FieldIncidentDate, Input: InputIncidentDate, Column: "incident_date", Kind: KindDate, Default: "01/06/2021"},
	{Key: FieldIncidentTime, Input: InputIncidentTime, Column: "incident_time", Kind: KindText, Default: "1:06 P.M."},
	{Key: FieldBasisOfClaim, Input: InputBasisOfClaim, Column: "basis_of_claim", Kind: KindText},
	{Key: FieldPropertyOwner, Input: InputPropertyOwner, Column: "property_owner", Kind: KindText, Default: "N/A"},
	{Key: FieldPropertyDescription, Input: InputPropertyDescription, Column: "property_description", Kind: KindText, Default: "N/A"},
	{Key: FieldNatureOfInjury, Input: InputNatureOfInjury, Column: "nature_of_injury", Kind: KindText},
	{Key: FieldWitnessName, Input: InputWitnessName, Column: "witness_name", Kind: KindText, Default: "See FBI and Capitol Police database"},
	{Key: FieldWitnessAddress, Input: InputWitnessAddress, Column: "witness_address", Kind: KindText, Default: "The FBI and Capitol Police already maintain a database of 1,000+ witnesses"},
	{Key: FieldPropertyDamage, Input: InputPropertyDamage, Column: "property_damage", Kind: KindCurrency, Default: "0.00"},
	{Key: FieldPersonalInjury, Input: InputPersonalInjury, Column: "personal_injury", Kind: KindCurrency, Default: "90000.00"},
	{Key: FieldWrongfulDeath, Input: InputWrongfulDeath, Column: "wrongful_death", Kind: KindCurrency, Default: "0.00"},
	{Key: FieldTotal, Column: "total", Kind: KindCurrency, Derive: totalAmount},
	{Key: FieldSignature, Input: InputSignature, Column: "signature", Kind: KindText, Signature: true},
	{Key: FieldPhone, Input: InputPhone, Column: "phone", Kind: KindText},
	{Key: FieldDateSigned, Input: InputDateSigned, Kind: KindDate, Signature: true},
	{Key: FieldInsuranceYes, Input: InputInsuranceYes, Column: "has_insurance", Kind: KindCheckbox, Default: "no"},
	{Key: FieldInsuranceNo, Kind: KindCheckbox, Derive: noInsurance},
	{Key: FieldInsurerName, Input: InputInsurerName, Column: "insurer_name", Kind: KindText},
	{Key: FieldPolicyNumber, Input: InputPolicyNumber, Column: "policy_number", Kind: KindText},
}

// Lookup returns the table row for a document field key.
func Lookup(key string) (Spec, bool) {
	for _, spec := range Fields {
		if spec.Key == key {
			return spec, true
		}
	}
	return Spec{}, false
}

func claimantBlock(resolved map[string]string) (string, bool) {
	name := resolved[InputName]
	address := resolved[InputAddress]

	cityLine := resolved[InputCity]
	if state := resolved[InputState]; state != "" {
		if cityLine != "" {
			cityLine += ", "
		}
		cityLine += state
	}
	if zip := resolved[InputZip]; zip != "" {
		if cityLine != "" {
			cityLine += " "
		}
		cityLine += zip
	}

	var lines []string
	for _, line := range []string{name, address, cityLine} {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

func totalAmount(resolved map[string]string) (string, bool) {
	var total float64
	for _, input := range []string{InputPropertyDamage, InputPersonalInjury, InputWrongfulDeath} {
		if amount, ok := ParseAmount(resolved[input]); ok {
			total += amount
		}
	}
	return FormatAmount(total), true
}

// The "no" box mirrors the "yes" box so exactly one is checked.
func noInsurance(resolved map[string]string) (string, bool) {
	if checked, known := ParseCheckbox(resolved[InputInsuranceYes]); known && checked {
		return "false", true
	}
	return "true", true
}
