package engine

import "unicode"

// KeyKind is the logical class of an input event.
type KeyKind uint8

const (
	// KeyOther is any non-printable or modifier key; it is ignored.
	KeyOther KeyKind = iota
	// KeyRune is a printable character carried in Key.Rune.
	KeyRune
	// KeySpace is the separator key.
	KeySpace
	// KeyBackspace deletes one position.
	KeyBackspace
	// KeyRestart discards the session and starts a new one.
	KeyRestart
)

// Key is a normalized input event.
type Key struct {
	Kind KeyKind
	Rune rune
}

// RuneKey returns a printable key event, mapping the space rune to KeySpace.
func RuneKey(r rune) Key {
	if r == ' ' {
		return Key{Kind: KeySpace, Rune: ' '}
	}
	return Key{Kind: KeyRune, Rune: r}
}

// typed returns the rune to compare against the target, or false when the
// key does not produce a character.
func (k Key) typed() (rune, bool) {
	switch k.Kind {
	case KeySpace:
		return ' ', true
	case KeyRune:
		if k.Rune == ' ' {
			return ' ', true
		}
		if !unicode.IsPrint(k.Rune) {
			return 0, false
		}
		return unicode.ToLower(k.Rune), true
	default:
		return 0, false
	}
}
