package adminController

import (
	"context"
	"strconv"

	"form95/internal/fieldmap"
	. "form95/internal/models"
	"form95/internal/repositories"
)

type exportColumn struct {
	header string
	value  func(*Claim) string
}

var exportColumns = []exportColumn{
	{"Reference", func(c *Claim) string { return c.DocumentFilename }},
	{"Created", func(c *Claim) string { return fieldmap.FormatTimestamp(c.CreatedAt.UTC()) }},
	{"Name", func(c *Claim) string { return c.Name }},
	{"Address", func(c *Claim) string { return c.Address }},
	{"City", func(c *Claim) string { return c.City }},
	{"State", func(c *Claim) string { return c.State }},
	{"Zip", func(c *Claim) string { return c.Zip }},
	{"Email", func(c *Claim) string { return c.Email }},
	{"Phone", func(c *Claim) string { return fieldmap.FormatPhone(c.Phone) }},
	{"Date of Birth", func(c *Claim) string { return c.DateOfBirth }},
	{"Marital Status", func(c *Claim) string { return c.MaritalStatus }},
	{"Employment", func(c *Claim) string { return c.EmploymentType }},
	{"Incident Date", func(c *Claim) string { return c.IncidentDate }},
	{"Incident Time", func(c *Claim) string { return c.IncidentTime }},
	{"Basis of Claim", func(c *Claim) string { return c.BasisOfClaim }},
	{"Nature of Injury", func(c *Claim) string { return c.NatureOfInjury }},
	{"Property Damage", func(c *Claim) string { return fieldmap.FormatCurrency(c.PropertyDamage) }},
	{"Personal Injury", func(c *Claim) string { return fieldmap.FormatCurrency(c.PersonalInjury) }},
	{"Wrongful Death", func(c *Claim) string { return fieldmap.FormatCurrency(c.WrongfulDeath) }},
	{"Total", func(c *Claim) string { return fieldmap.FormatCurrency(c.Total) }},
	{"Insured", func(c *Claim) string { return strconv.FormatBool(c.HasInsurance) }},
	{"Signature", func(c *Claim) string { return c.Signature }},
	{"Signed At", func(c *Claim) string {
		if c.SignedAt == nil {
			return ""
		}
		return fieldmap.FormatTimestamp(c.SignedAt.UTC())
	}},
	{"Status", func(c *Claim) string { return string(c.Status) }},
	{"Document Error", func(c *Claim) string { return c.DocumentError }},
}

func ExportHeaders() []string {
	headers := make([]string, len(exportColumns))
	for i, col := range exportColumns {
		headers[i] = col.header
	}
	return headers
}

func ExportRow(claim *Claim) []string {
	row := make([]string, len(exportColumns))
	for i, col := range exportColumns {
		row[i] = col.value(claim)
	}
	return row
}

// Export projects the filtered claims onto the fixed export columns.
func (c *AdminController) Export(ctx context.Context, filter repositories.ClaimFilter) ([]string, [][]string, error) {
	claims, err := c.claims.List(ctx, filter)
	if err != nil {
		return nil, nil, c.log.Function("Export").Err("failed to list claims for export", err)
	}

	rows := make([][]string, 0, len(claims))
	for _, claim := range claims {
		rows = append(rows, ExportRow(claim))
	}
	return ExportHeaders(), rows, nil
}
