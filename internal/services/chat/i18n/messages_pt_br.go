package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.BrazilianPortuguese

	message.SetString(lang, "title.chat", "Chat")
	message.SetString(lang, "feed.label", "Mensagens do chat")
	message.SetString(lang, "feed.message_from", "Mensagem de %s")
	message.SetString(lang, "feed.empty", "Nenhuma mensagem ainda. Diga olá!")

	message.SetString(lang, "identity.logged_in_as", "Conectado como:")
	message.SetString(lang, "identity.change", "Alterar")
	message.SetString(lang, "identity.set_label", "Defina seu nome de usuário")
	message.SetString(lang, "identity.change_label", "Altere seu nome de usuário")
	message.SetString(lang, "identity.current", "Atual: %s")
	message.SetString(lang, "identity.placeholder", "Digite seu nome...")
	message.SetString(lang, "identity.submit_set", "Definir nome")
	message.SetString(lang, "identity.submit_update", "Atualizar")
	message.SetString(lang, "identity.cancel", "Cancelar")

	message.SetString(lang, "send.placeholder", "Digite aqui...")
	message.SetString(lang, "send.placeholder_no_identity", "Defina seu nome primeiro...")
	message.SetString(lang, "send.input_label", "Campo de mensagem")
	message.SetString(lang, "send.button_label", "Enviar mensagem")
	message.SetString(lang, "send.button", "Enviar")
	message.SetString(lang, "send.hint_no_identity", "Defina seu nome de usuário acima para começar a conversar")

	message.SetString(lang, "error.empty_message", "A mensagem não pode estar vazia")
	message.SetString(lang, "error.missing_identity", "Defina seu nome de usuário antes de enviar mensagens")
	message.SetString(lang, "error.send_failed", "Falha ao enviar a mensagem. Tente novamente.")
	message.SetString(lang, "error.empty_username", "O nome de usuário não pode estar vazio")
	message.SetString(lang, "error.username_too_long", "O nome de usuário deve ter no máximo 50 caracteres")
	message.SetString(lang, "error.username_failed", "Falha ao definir o nome de usuário. Tente novamente.")
	message.SetString(lang, "error.rate_limited", "Você está enviando rápido demais. Aguarde um momento.")
}
