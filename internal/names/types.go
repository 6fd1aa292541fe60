package names

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"piuma/internal/document"
)

// Strings is one locale file. Action templates may contain {noun}, which is
// replaced by the noun for the node kind; title templates contain {action}.
type Strings struct {
	Tag       string            `yaml:"tag"`
	Root      string            `yaml:"root"`
	Defaults  map[string]string `yaml:"defaults"`
	Nouns     map[string]string `yaml:"nouns"`
	Actions   map[string]string `yaml:"actions"`
	Undo      string            `yaml:"undo"`
	Redo      string            `yaml:"redo"`
	UndoTitle string            `yaml:"undo_title"`
	RedoTitle string            `yaml:"redo_title"`
}

var (
	kinds = []document.Kind{document.KindFolder, document.KindRequest}
	verbs = []document.Verb{
		document.VerbCreate,
		document.VerbMove,
		document.VerbDelete,
		document.VerbRename,
		document.VerbEditURL,
	}
)

// Validate checks that every string the document model can ask for exists.
func (s *Strings) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Tag, validation.Required),
		validation.Field(&s.Root, validation.Required),
		validation.Field(&s.Undo, validation.Required),
		validation.Field(&s.Redo, validation.Required),
		validation.Field(&s.UndoTitle, validation.Required),
		validation.Field(&s.RedoTitle, validation.Required),
	)
	if err != nil {
		return err
	}
	for _, k := range kinds {
		if s.Defaults[string(k)] == "" {
			return fmt.Errorf("defaults: missing %s", k)
		}
		if s.Nouns[string(k)] == "" {
			return fmt.Errorf("nouns: missing %s", k)
		}
	}
	for _, v := range verbs {
		if s.Actions[string(v)] == "" {
			return fmt.Errorf("actions: missing %s", v)
		}
	}
	return nil
}

// Namer implements document.Namer for one locale.
type Namer struct {
	s *Strings
}

var _ document.Namer = Namer{}

// Locale returns the BCP 47 tag of the locale.
func (n Namer) Locale() string { return n.s.Tag }

func (n Namer) RootName() string { return n.s.Root }

func (n Namer) DefaultName(kind document.Kind) string {
	return n.s.Defaults[string(kind)]
}

func (n Namer) ActionName(verb document.Verb, kind document.Kind) string {
	tmpl, ok := n.s.Actions[string(verb)]
	if !ok {
		return string(verb)
	}
	return strings.ReplaceAll(tmpl, "{noun}", n.s.Nouns[string(kind)])
}

func (n Namer) UndoTitle(action string) string {
	if action == "" {
		return n.s.Undo
	}
	return strings.ReplaceAll(n.s.UndoTitle, "{action}", action)
}

func (n Namer) RedoTitle(action string) string {
	if action == "" {
		return n.s.Redo
	}
	return strings.ReplaceAll(n.s.RedoTitle, "{action}", action)
}
