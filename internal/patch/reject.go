package patch

import "fmt"

// RejectFileContent builds the full `.rej` file body for a target
// (spec.md §6 Reject file): one `--- filename / +++ filename` header
// followed by the rejected hunks' headers and verbatim bodies.
func RejectFileContent(oldFilename, newFilename, rejectedHunkText string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n%s", oldFilename, newFilename, rejectedHunkText)
}
