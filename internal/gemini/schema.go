package gemini

import "google.golang.org/genai"

func rowSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"unitTask":        {Type: genai.TypeString},
			"potentialHazard": {Type: genai.TypeString},
			"safetyMeasure":   {Type: genai.TypeString},
		},
		Required: []string{"unitTask", "potentialHazard", "safetyMeasure"},
	}
}

func draftSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tableData": {
				Type:  genai.TypeArray,
				Items: rowSchema(),
			},
			"legalClauses": {
				Type:        genai.TypeString,
				Description: "관련 법 조항 요약",
			},
		},
		Required: []string{"tableData", "legalClauses"},
	}
}

func supplementSchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: rowSchema(),
	}
}
