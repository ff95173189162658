// team/format/format.go
package format

import "fmt"

// Prefix is the network-wide chat prefix shown before every service message.
const Prefix = "GakkouCraft"

// Message palette. Feedback text always carries one of these RGB colors so
// the proxy renders service output consistently.
const (
	ErrorColor   = 0xf7676a
	SuccessColor = 0xa3f767
	InfoColor    = 0x67a3f7
	WarningColor = 0xf7d767
	White        = 0xffffff
)

// Prefixed returns the message with the chat prefix prepended.
func Prefixed(message string) string {
	return fmt.Sprintf("[%s] %s", Prefix, message)
}

// TeamChat formats a team chat line: [<team>] <sender> <message>.
func TeamChat(teamName, sender, message string) string {
	return fmt.Sprintf("[%s] <%s> %s", teamName, sender, message)
}
