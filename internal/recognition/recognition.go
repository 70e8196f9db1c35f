// Package recognition holds the result records returned by the document
// functions.
package recognition

// RecognitionResult is the structured data extracted from an identity document.
type RecognitionResult struct {
	Name       string  `json:"name"`
	IDNumber   string  `json:"id_number"`
	DOB        string  `json:"dob"`
	Confidence float64 `json:"confidence"`
}

// VerificationResult is the outcome reported by an identity verification provider.
type VerificationResult struct {
	Verified bool    `json:"verified"`
	Provider string  `json:"provider"`
	Score    float64 `json:"score"`
}

// StubRecognition returns the fixed recognition result served in place of a real OCR call.
func StubRecognition() RecognitionResult {
	return RecognitionResult{
		Name:       "Priya Sharma",
		IDNumber:   "DL-XYZ-1234",
		DOB:        "1992-06-10",
		Confidence: 0.93,
	}
}

// StubVerification returns the fixed verification result of the mock provider.
func StubVerification() VerificationResult {
	return VerificationResult{
		Verified: true,
		Provider: "mock",
		Score:    0.95,
	}
}
