package model

type CalculationMessage struct {
	ID      int    `json:"id"`
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
)

func Critical(code, message string) CalculationMessage {
	return CalculationMessage{Level: LevelCritical, Code: code, Message: message}
}

func Warning(code, message string) CalculationMessage {
	return CalculationMessage{Level: LevelWarning, Code: code, Message: message}
}

// Section is the part of the quote editor a validation issue routes the user to.
type Section string

const (
	SectionProfile  Section = "profile"
	SectionLives    Section = "lives"
	SectionProducts Section = "products"
)

// Issue is a field-level reason the draft cannot be submitted yet.
type Issue struct {
	Section Section `json:"section"`
	Field   string  `json:"field"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
