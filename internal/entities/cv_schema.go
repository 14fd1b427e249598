package entities

// CVSchemaVersion must be bumped whenever the shape of CVSchema changes so that
// cached extractions produced by an older shape are re-extracted.
const CVSchemaVersion = 1

// CVSchema is the structured representation of a résumé returned by the AI.
// A nil pointer or nil slice means the field was not extracted and must not be
// applied to the profile. Slices have no omitempty so that an extracted empty
// list survives a round trip through the cache.
type CVSchema struct {
	Description  *string        `json:"description,omitempty"`
	Department   *string        `json:"department,omitempty"`
	LinkedinURL  *string        `json:"linkedinUrl,omitempty"`
	Introduction *string        `json:"introduction,omitempty"`
	Skills       []CVSkill      `json:"skills"`
	Experiences  []CVExperience `json:"experiences"`
	Formations   []CVFormation  `json:"formations"`
	Interests    []CVInterest   `json:"interests"`
	Languages    []CVLanguage   `json:"languages"`
}

type CVSkill struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type CVExperience struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type CVFormation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type CVInterest struct {
	Name string `json:"name"`
}

type CVLanguage struct {
	// Value is a language code or name as written in the résumé.
	Value string `json:"value"`
	Level string `json:"level"`
}
