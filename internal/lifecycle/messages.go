package lifecycle

import "fmt"

// CloseMessage is posted right before an expired issue is closed.
func CloseMessage(reason, newIssueURL string) string {
	return fmt.Sprintf("Closing for now — %s. Please [open a new issue](%s) if this is still relevant.", reason, newIssueURL)
}

// NudgeMessage is posted when a lifecycle label is applied, warning the
// author before the label's timeout closes the issue.
func NudgeMessage(e Entry) string {
	return fmt.Sprintf("%s This issue will be closed automatically if there's no activity within %d days.", e.Nudge, e.Days)
}
