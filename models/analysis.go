package models

import (
	"encoding/json"
	"time"
)

// AnalysisDocument is the structured study material produced for one story at
// one difficulty level. The shape mirrors what the analyzer returns and what
// the precomputed data files contain.
type AnalysisDocument struct {
	Summary        string              `json:"summary"`
	Paragraphs     []ParagraphAnalysis `json:"paragraphs_analysis"`
	RealLifeUsage  []string            `json:"real_life_usage"`
	Vocabulary     []VocabularyItem    `json:"vocabulary"`
	Grammar        []GrammarPattern    `json:"grammar"`
	KeyExpressions []string            `json:"key_expressions"`
}

// ParagraphAnalysis explains a single paragraph of the source story.
type ParagraphAnalysis struct {
	ParagraphNum   int    `json:"paragraph_num"`
	OriginalText   string `json:"original_text"`
	SimplifiedText string `json:"simplified_text"`
	Explanation    string `json:"explanation"`
}

// VocabularyItem is one word entry extracted from the story.
type VocabularyItem struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
	Example string `json:"example"`
}

// GrammarPattern is one grammar point extracted from the story.
type GrammarPattern struct {
	Pattern     string `json:"pattern"`
	Explanation string `json:"explanation"`
	Example     string `json:"example"`
}

// Quiz is a set of comprehension questions generated for a story.
type Quiz struct {
	Questions []QuizQuestion `json:"quiz_questions"`
}

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// AnalysisCache is the durable cache tier for generated analyses, keyed by
// the raw story title and difficulty level. Rows written at runtime carry
// Generated=true; precomputed material never lands here.
type AnalysisCache struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Title     string          `gorm:"size:255;index:idx_analysis_title_level,unique;not null" json:"title"`
	Level     string          `gorm:"size:16;index:idx_analysis_title_level,unique;not null" json:"level"`
	Payload   json.RawMessage `gorm:"type:json;not null" json:"payload"`
	Generated bool            `gorm:"not null;default:true" json:"generated"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
