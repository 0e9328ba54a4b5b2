package entity

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var mentionNamespace = uuid.MustParse("6f1c2f0e-4c1a-4d59-9a53-1f0f2b7c9e41")

// MentionRecord is one recognized project mention for data transfer between layers.
type MentionRecord struct {
	PDFFile         string       `json:"pdf_file"`
	PageNumber      int          `json:"page_number"`
	ProjectName     string       `json:"project_name"`
	ContextSentence string       `json:"context_sentence"`
	Coordinates     *Coordinates `json:"coordinates"`
	// Source records which resolver produced Coordinates. Not part of the JSONL stream.
	Source string `json:"-"`
}

// ID is deterministic over the record's identifying fields, so re-running a
// document upserts instead of duplicating.
func (m MentionRecord) ID() uuid.UUID {
	key := strings.Join([]string{m.PDFFile, strconv.Itoa(m.PageNumber), m.ProjectName, m.ContextSentence}, "\x1f")
	return uuid.NewSHA1(mentionNamespace, []byte(key))
}

// Resolved reports whether coordinates are attached.
func (m MentionRecord) Resolved() bool {
	return m.Coordinates != nil
}

// ProjectLocation is a reference coordinate for a named project.
type ProjectLocation struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
}
