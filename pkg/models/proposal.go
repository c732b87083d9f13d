package models

// ProposalContext carries one proposal through the analysis stages.
type ProposalContext struct {
	ProposalID string         `json:"proposal_id"`
	UserID     string         `json:"user_id"`
	Data       map[string]any `json:"data"`
}

// Title returns the proposal title, empty when absent.
func (p *ProposalContext) Title() string {
	return p.stringField("title")
}

// Vendor returns the submitting vendor name, empty when absent.
func (p *ProposalContext) Vendor() string {
	return p.stringField("vendor")
}

// Category returns the product or service category, empty when absent.
func (p *ProposalContext) Category() string {
	return p.stringField("category")
}

// RegulatoryDomain returns the declared regulatory domain, empty when absent.
func (p *ProposalContext) RegulatoryDomain() string {
	return p.stringField("regulatory_domain")
}

// Amount returns the proposed contract amount, zero when absent.
// JSON decoding yields float64 for numbers; integer values are accepted too.
func (p *ProposalContext) Amount() float64 {
	switch v := p.Data["amount"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// DurationMonths returns the proposed contract duration, zero when absent.
func (p *ProposalContext) DurationMonths() int {
	switch v := p.Data["duration_months"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// Expedited reports whether the submitter flagged the proposal for
// fast-track handling.
func (p *ProposalContext) Expedited() bool {
	v, _ := p.Data["expedited"].(bool)

	return v
}

func (p *ProposalContext) stringField(key string) string {
	v, _ := p.Data[key].(string)

	return v
}
