package contact

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	keySent   = "contact.sent"
	keyFailed = "contact.failed"
)

func missingKey(field string) string {
	return "contact.missing." + field
}

func init() {
	en := language.English
	message.SetString(en, keySent, "✅ Your message was sent successfully!")
	message.SetString(en, keyFailed, "⚠️ Sorry, your message could not be sent. Please try again later.")
	message.SetString(en, missingKey(FieldName), "⚠️ Please enter your full name")
	message.SetString(en, missingKey(FieldContact), "⚠️ Please enter your email, phone number or Telegram ID")
	message.SetString(en, missingKey(FieldSubject), "⚠️ Please enter a subject")
	message.SetString(en, missingKey(FieldMessage), "⚠️ Please write your message")

	fa := language.Persian
	message.SetString(fa, keySent, "✅ پیام شما با موفقیت ارسال شد!")
	message.SetString(fa, keyFailed, "⚠️ متأسفانه ارسال پیام ممکن نشد. لطفاً بعداً دوباره تلاش کنید")
	message.SetString(fa, missingKey(FieldName), "⚠️ لطفاً نام و نام خانوادگی خود را وارد کنید")
	message.SetString(fa, missingKey(FieldContact), "⚠️ لطفاً ایمیل، شماره تماس یا آیدی تلگرام خود را وارد کنید")
	message.SetString(fa, missingKey(FieldSubject), "⚠️ لطفاً موضوع پیام را وارد کنید")
	message.SetString(fa, missingKey(FieldMessage), "⚠️ لطفاً متن پیام خود را بنویسید")
}
