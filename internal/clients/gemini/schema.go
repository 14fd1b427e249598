package gemini

import (
	_ "embed"
	"github.com/google/generative-ai-go/genai"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed cv_schema.json
var cvJSONSchema string

var cvValidator = mustCompileSchema(cvJSONSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(err)
	}
	return compiled
}

func stringField(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description, Nullable: true}
}

func objectList(properties map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{
		Type:     genai.TypeArray,
		Nullable: true,
		Items: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   required,
		},
	}
}

// responseSchema mirrors cv_schema.json in the form the Gemini API accepts.
func responseSchema() *genai.Schema {
	dates := func(properties map[string]*genai.Schema) map[string]*genai.Schema {
		properties["startDate"] = stringField("Start date, YYYY-MM-DD or YYYY-MM when the day is unknown")
		properties["endDate"] = stringField("End date in the same format, null when ongoing")
		return properties
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description":  stringField("Short professional summary"),
			"department":   stringField("French department number of the candidate's address"),
			"linkedinUrl":  stringField("LinkedIn profile URL"),
			"introduction": stringField("Introduction or objective paragraph as written"),
			"skills": objectList(map[string]*genai.Schema{
				"name":  {Type: genai.TypeString},
				"order": {Type: genai.TypeInteger, Description: "Rank by importance, 0 first"},
			}, "name", "order"),
			"experiences": objectList(dates(map[string]*genai.Schema{
				"title":       {Type: genai.TypeString},
				"description": stringField(""),
				"company":     stringField(""),
				"location":    stringField(""),
			}), "title"),
			"formations": objectList(dates(map[string]*genai.Schema{
				"title":       {Type: genai.TypeString},
				"description": stringField(""),
				"location":    stringField(""),
			}), "title"),
			"interests": objectList(map[string]*genai.Schema{
				"name": {Type: genai.TypeString},
			}, "name"),
			"languages": objectList(map[string]*genai.Schema{
				"value": {Type: genai.TypeString, Description: "ISO 639-1 code of the language"},
				"level": stringField("CEFR level or native"),
			}, "value"),
		},
	}
}
