package domain

// NamedOption is an id/name pair used by the domain and region filter lists.
type NamedOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InvestorRecord is one entry of the investor directory.
type InvestorRecord struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Company         string        `json:"company"`
	Domains         []NamedOption `json:"domains"`
	Regions         []NamedOption `json:"regions"`
	InvestmentStage string        `json:"investment_stage"`
	Tags            string        `json:"tags"`
	Website         string        `json:"website"`
	ContactEmail    string        `json:"contact_email"`
}

// ResultPage is one server page of investor records. It is replaced wholesale
// on every successful fetch, never merged or appended. NextCursor and
// PrevCursor are opaque tokens; empty means no page in that direction.
type ResultPage struct {
	Items      []InvestorRecord
	TotalCount int
	NextCursor string
	PrevCursor string
}
