package document

// Verb identifies a kind of mutation for naming undo steps.
type Verb string

const (
	VerbCreate  Verb = "create"
	VerbMove    Verb = "move"
	VerbDelete  Verb = "delete"
	VerbRename  Verb = "rename"
	VerbEditURL Verb = "edit_url"
)

// Namer supplies the user-facing strings the model needs: default names
// for new nodes and names for undo steps. Hosts inject a localized one.
type Namer interface {
	RootName() string
	DefaultName(kind Kind) string
	ActionName(verb Verb, kind Kind) string
	UndoTitle(action string) string
	RedoTitle(action string) string
}

// EnglishNamer is the built-in Namer.
type EnglishNamer struct{}

func (EnglishNamer) RootName() string { return "Requests" }

func (EnglishNamer) DefaultName(kind Kind) string {
	if kind == KindFolder {
		return "New Folder"
	}
	return "New Request"
}

func (EnglishNamer) ActionName(verb Verb, kind Kind) string {
	noun := "Request"
	if kind == KindFolder {
		noun = "Folder"
	}
	switch verb {
	case VerbCreate:
		return "Create " + noun
	case VerbMove:
		return "Move " + noun
	case VerbDelete:
		return "Delete " + noun
	case VerbRename:
		return "Rename " + noun
	case VerbEditURL:
		return "Edit URL"
	}
	return string(verb)
}

func (EnglishNamer) UndoTitle(action string) string {
	if action == "" {
		return "Undo"
	}
	return "Undo " + action
}

func (EnglishNamer) RedoTitle(action string) string {
	if action == "" {
		return "Redo"
	}
	return "Redo " + action
}
