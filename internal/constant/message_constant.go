package constant

// Chat texts are rendered in Telegram HTML parse mode.
const (
	MsgRecognizing       = "🔍 Розпізнаю накладну... Це може зайняти до хвилини."
	MsgRecognized        = "✅ Накладну розпізнано та перевірено. Постачальник: <b>%s</b>. Починаю зіставлення з базою..."
	MsgVerificationError = "❌ Помилка перевірки: сума по позиціях (%s) не збігається з підсумковою сумою по накладній (%s). Перевірте якість фото."
	MsgRecognitionFailed = "❌ Не вдалося розпізнати накладну. Перевірте якість фото та спробуйте ще раз."
	MsgPhotoFailed       = "❌ Не вдалося обробити фото. Спробуйте надіслати його ще раз."

	MsgEmptyCatalog          = "⚠️ Не вдалося завантажити базу товарів (номенклатуру). Подальша обробка неможлива."
	MsgMatchingEmpty         = "❌ Отримано порожню відповідь від системи аналізу на етапі зіставлення. Спробуйте ще раз."
	MsgMatchingInvalid       = "❌ Системі аналізу не вдалося повернути коректні дані для зіставлення. Спробуйте ще раз."
	MsgMatchingUnexpected    = "❌ Система аналізу повернула дані в неочікуваному форматі. Спробуйте ще раз."
	MsgReviewHeader          = "<b>Перевірка зіставлення:</b>\nБудь ласка, перевірте результати.\n\n"
	MsgReviewFooter          = "Якщо все вірно, натисніть <b>✅ Все вірно, далі</b>.\nЯкщо є помилки, натисніть <b>✏️ Виправити помилки</b>."
	MsgCorrectionPrompt      = "Будь ласка, <b>дайте відповідь на це повідомлення</b>, вказавши номер позиції та правильний ID у форматі: <code>номер - ID</code>.\nНаприклад: <code>1 - 123, 2 - 456</code>"
	MsgCorrectionFormatError = "❌ Не вдалося обробити вашу відповідь. Перевірте формат та спробуйте ще раз."
	MsgCorrectionSkipped     = "⚠️ Деякі виправлення пропущено:\n%s"
	MsgSkippedPosition       = "• <code>%s</code>: немає позиції з таким номером"
	MsgSkippedProduct        = "• <code>%s</code>: ID не знайдено в базі"

	MsgNoAccess            = "❌ У вас немає доступу до жодної торгової точки. Зверніться до адміністратора."
	MsgPointsNotConfigured = "❌ Вам надано доступ до торгових точок, але вони не налаштовані в боті. Зверніться до адміністратора."
	MsgSelectTradePoint    = "В яку кав'ярню внести накладну?"
	MsgFinalHeader         = "<b>Готово до відправки в облікову систему:</b>\n\n"
	MsgFinalFooter         = "\nНатисніть кнопку нижче для відправки в SkyService."

	MsgStaleSession = "❌ Помилка: сесія для цієї накладної застаріла. Спробуйте знову."
	MsgEditsClosed  = "🔒 Накладну вже підтверджено, зміни неможливі. Щоб виправити, надішліть фото накладної знову."
	MsgServerBusy   = "⏳ Сервер зараз зайнятий обробкою іншого запиту. Будь ласка, повторіть спробу за хвилину."
	MsgInternal     = "❌ Сталася внутрішня помилка. Спробуйте ще раз."

	MsgCreateDraftFailed = "❌ Помилка при створенні чернетки в SkyService."
	MsgPinDraftFailed    = "❌ Помилка при закріпленні чернетки в SkyService."
	MsgFillDraftFailed   = "❌ Помилка при збереженні даних накладної в SkyService."
	MsgCommitFailed      = "❌ Помилка при фінальному збереженні накладної в SkyService."
	MsgSubmitted         = "✅ Накладну успішно відправлено в SkyService! ID документа: %s"
)

// Review buttons.
const (
	BtnConfirmReview = "✅ Все вірно, далі"
	BtnEditErrors    = "✏️ Виправити помилки"
	BtnSubmit        = "🚀 Відправити в SkyService"
)

// Annotations appended to the message whose button was pressed.
const (
	NoteCorrectionMode = "<b>(Режим виправлення)</b>"
	NoteReviewed       = "<b>(✅ Перевірено)</b>"
	NoteSelected       = "<b>(✅ Обрано: %s)</b>"
	NoteProcessing     = "<b>(Обробка...)</b>"

	NoteCreateFailed = "<b>(Помилка створення чернетки)</b>"
	NotePinFailed    = "<b>(Помилка закріплення чернетки)</b>"
	NoteFillFailed   = "<b>(Помилка збереження даних)</b>"
	NoteCommitFailed = "<b>(Помилка фінального збереження)</b>"
	NoteSubmitted    = "<b>(✅ Відправлено в SkyService. ID: %s)</b>"
)

// Status glyphs used in review and summary screens.
const (
	GlyphMatchedByAI   = "🤖"
	GlyphMatchedByUser = "👤"
	GlyphUnmatched     = "❓"
)
