package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/model"
)

// MinDetectionConfidence is the lowest confidence kept from a provider response.
const MinDetectionConfidence = 0.3

// jetTypeAliases maps common model names and category slugs onto canonical
// jet types.
var jetTypeAliases = map[string]string{
	"fighter":             "fighter jet",
	"f16":                 "fighter jet",
	"mig":                 "fighter jet",
	"rafale":              "fighter jet",
	"hornet":              "fighter jet",
	"fighter-jet":         "fighter jet",
	"airbus":              "commercial airliner",
	"boeing":              "commercial airliner",
	"a320":                "commercial airliner",
	"737":                 "commercial airliner",
	"passenger":           "commercial airliner",
	"commercial-airliner": "commercial airliner",
	"helicopter":          "helicopter",
	"chopper":             "helicopter",
	"apache":              "helicopter",
	"bell":                "helicopter",
	"drone":               "drone",
	"uav":                 "drone",
	"quadcopter":          "drone",
	"cargo":               "cargo aircraft",
	"freighter":           "cargo aircraft",
	"cargo-aircraft":      "cargo aircraft",
}

// textKeywords drives ExtractFromText, in output order.
var textKeywords = []struct {
	jetType    string
	terms      []string
	confidence float64
}{
	{"fighter jet", []string{"fighter", "f16", "mig", "rafale", "hornet", "combat"}, 0.8},
	{"commercial airliner", []string{"airbus", "boeing", "passenger", "a320", "737"}, 0.8},
	{"helicopter", []string{"helicopter", "chopper", "bell", "apache", "rotor"}, 0.75},
	{"drone", []string{"drone", "uav", "quadcopter"}, 0.7},
	{"cargo aircraft", []string{"cargo", "freighter", "goods", "transport"}, 0.65},
}

// NormalizeJetType lowercases and trims jetType and maps known aliases onto
// canonical names. Unknown types are returned lowercased.
func NormalizeJetType(jetType string) string {
	normalized := strings.ToLower(strings.TrimSpace(jetType))
	if canonical, ok := jetTypeAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// DetectionCategory maps a detected jet type onto a category.
func DetectionCategory(jetType string) (model.Category, bool) {
	c, err := model.ParseCategory(NormalizeJetType(jetType))
	if err != nil {
		return model.CategoryUnknown, false
	}
	return c, true
}

// ParseDetections extracts detections from a provider response. The response
// should contain a JSON object with a "jets" array; anything else is handed to
// ExtractFromText.
func ParseDetections(text string) []model.DetectedJet {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ExtractFromText(text)
	}

	var envelope struct {
		Jets json.RawMessage `json:"jets"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &envelope); err != nil {
		return ExtractFromText(text)
	}

	var entries []any
	if len(envelope.Jets) == 0 || json.Unmarshal(envelope.Jets, &entries) != nil || entries == nil {
		return ExtractFromText(text)
	}

	jets := make([]model.DetectedJet, 0, len(entries))
	for _, raw := range entries {
		entry, isObject := raw.(map[string]any)
		if !isObject {
			continue
		}
		if jet, ok := detectionFromEntry(entry); ok {
			jets = append(jets, jet)
		}
	}
	return jets
}

func detectionFromEntry(entry map[string]any) (model.DetectedJet, bool) {
	jetType, _ := entry["jetType"].(string)
	description, _ := entry["description"].(string)
	confidence, isNumber := entry["confidence"].(float64)

	description = strings.TrimSpace(description)
	if strings.TrimSpace(jetType) == "" || description == "" || !isNumber {
		return model.DetectedJet{}, false
	}
	if confidence < MinDetectionConfidence {
		return model.DetectedJet{}, false
	}

	return model.DetectedJet{
		JetType:     NormalizeJetType(jetType),
		Confidence:  math.Min(confidence, 1.0),
		Description: description,
	}, true
}

// ExtractFromText scans free text for aircraft terms. Each jet type is
// reported at most once; every extra term found adds 0.1 to its base
// confidence, up to 0.98.
func ExtractFromText(text string) []model.DetectedJet {
	lower := strings.ToLower(text)

	jets := []model.DetectedJet{}
	for _, kw := range textKeywords {
		var found []string
		for _, term := range kw.terms {
			if strings.Contains(lower, term) {
				found = append(found, term)
			}
		}
		if len(found) == 0 {
			continue
		}

		confidence := math.Min(kw.confidence+float64(len(found)-1)*0.1, 0.98)
		jets = append(jets, model.DetectedJet{
			JetType:     kw.jetType,
			Confidence:  math.Round(confidence*100) / 100,
			Description: fmt.Sprintf("Detected %s based on AI analysis (found: %s)", kw.jetType, strings.Join(found, ", ")),
		})
	}
	return jets
}

// TopDetection returns the detection with the highest confidence. Earlier
// entries win ties.
func TopDetection(jets []model.DetectedJet) (model.DetectedJet, bool) {
	if len(jets) == 0 {
		return model.DetectedJet{}, false
	}
	best := jets[0]
	for _, j := range jets[1:] {
		if j.Confidence > best.Confidence {
			best = j
		}
	}
	return best, true
}
