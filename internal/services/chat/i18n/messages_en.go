package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.AmericanEnglish

	message.SetString(lang, "title.chat", "Chat")
	message.SetString(lang, "feed.label", "Chat messages")
	message.SetString(lang, "feed.message_from", "Message from %s")
	message.SetString(lang, "feed.empty", "No messages yet. Say hello!")

	message.SetString(lang, "identity.logged_in_as", "Logged in as:")
	message.SetString(lang, "identity.change", "Change")
	message.SetString(lang, "identity.set_label", "Set your username")
	message.SetString(lang, "identity.change_label", "Change your username")
	message.SetString(lang, "identity.current", "Current: %s")
	message.SetString(lang, "identity.placeholder", "Enter your name...")
	message.SetString(lang, "identity.submit_set", "Set Username")
	message.SetString(lang, "identity.submit_update", "Update")
	message.SetString(lang, "identity.cancel", "Cancel")

	message.SetString(lang, "send.placeholder", "Type here...")
	message.SetString(lang, "send.placeholder_no_identity", "Set your username first...")
	message.SetString(lang, "send.input_label", "Chat message input")
	message.SetString(lang, "send.button_label", "Send message")
	message.SetString(lang, "send.button", "Send")
	message.SetString(lang, "send.hint_no_identity", "Please set your username above to start chatting")

	message.SetString(lang, "error.empty_message", "Message cannot be empty")
	message.SetString(lang, "error.missing_identity", "Please set your username before sending messages")
	message.SetString(lang, "error.send_failed", "Failed to send message. Please try again.")
	message.SetString(lang, "error.empty_username", "Username cannot be empty")
	message.SetString(lang, "error.username_too_long", "Username must be 50 characters or less")
	message.SetString(lang, "error.username_failed", "Failed to set username. Please try again.")
	message.SetString(lang, "error.rate_limited", "You are sending too fast. Please wait a moment.")
}
