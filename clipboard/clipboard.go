// Package clipboard copies text to the system clipboard so a summary can
// be pasted straight into other notes apps.
package clipboard

import cb "github.com/atotto/clipboard"

func Copy(text string) error {
	return cb.WriteAll(text)
}
