package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	app "aoi-workspace/internal/application"
	"aoi-workspace/internal/container"
	"aoi-workspace/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я рабочее место оператора проверки маркировки микросхем.

📸 Отправьте фото детали, выберите деталь и параметры OCR, затем /inspect.

📋 Команды:
/parts — выбрать деталь из каталога
/inspect — отправить изображение на проверку
/settings — текущие параметры
/help — справка`

	msgHelp = `ℹ️ Как пользоваться:

1️⃣ Отправьте фото детали (или перетащите файл изображения в чат)
2️⃣ Выберите деталь: /parts или /part &lt;id&gt;
3️⃣ При необходимости настройте OCR: /psm, /adaptive on|off, /whitelist &lt;символы&gt;
4️⃣ /inspect — результат придёт сообщением, рамка будет нарисована на фото

📋 Ещё команды:
/clear — убрать изображение и результат
/reset — начать сессию заново (журнал очищается)
/history — журнал проверок этой сессии
/export — журнал в CSV
/json — последний ответ сервиса в JSON`

	msgSendPhoto       = "📸 Пожалуйста, отправьте фото детали для проверки."
	msgNoImage         = "📸 Сначала отправьте изображение детали."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgRequestFailed   = "⚠️ Запрос не удался. Повторите /inspect."
	msgImageRejected   = "⚠️ Не удалось прочитать изображение. Пришлите PNG, JPEG или GIF."
	msgDownloadFailed  = "⚠️ Не удалось скачать файл. Попробуйте ещё раз."
	msgCleared         = "🧹 Изображение и результат убраны. Журнал сохранён."
	msgHistoryEmpty    = "📭 Журнал пуст."
	msgReset           = "🔄 Сессия начата заново, журнал очищен."
	msgChoosePart      = "🔩 Выберите деталь или введите свою: /part &lt;id&gt;"
	msgChoosePSM       = "🔠 Выберите режим сегментации:"
	msgAdaptiveUsage   = "Использование: /adaptive on|off"
	msgInternalError   = "⚠️ Внутренняя ошибка. Попробуйте ещё раз."
	msgImageLoadedTmpl = "🖼 Изображение %d×%d загружено. /inspect — отправить на проверку."
)

// Bot представляет Telegram-интерфейс рабочего места. У каждого чата своя сессия.
type Bot struct {
	api        *tgbotapi.BotAPI
	workspace  *app.WorkspaceService
	catalog    *app.CatalogService
	httpClient *http.Client
	log        zerolog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	return &Bot{
		api:        api,
		workspace:  c.WorkspaceService,
		catalog:    c.CatalogService,
		httpClient: &http.Client{},
		log:        log,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			b.handleCallback(ctx, update.CallbackQuery)
		case update.Message != nil:
			b.handleMessage(ctx, update.Message)
		}
	}

	return ctx.Err()
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Фото как выбор файла
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.acceptImage(ctx, msg.Chat.ID, photo.FileID, "photo.jpg", entity.SourceChooser)
		return
	}

	// Файл как перетаскивание
	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)
		b.sendSettings(ctx, chatID)

	case "help":
		b.sendHTML(chatID, msgHelp)

	case "parts":
		b.sendPartKeyboard(ctx, chatID)

	case "part":
		if args == "" {
			b.sendPartKeyboard(ctx, chatID)
			return
		}
		b.updateParameters(ctx, chatID, app.ParametersUpdate{PartID: &args})

	case "psm":
		if args == "" {
			params := b.parameters(ctx, chatID)
			m := tgbotapi.NewMessage(chatID, msgChoosePSM)
			m.ReplyMarkup = psmKeyboard(params.PSM)
			b.send(m)
			return
		}
		b.updateParameters(ctx, chatID, app.ParametersUpdate{PSM: &args})

	case "adaptive":
		on, ok := parseSwitch(args)
		if !ok {
			b.sendMessage(chatID, msgAdaptiveUsage)
			return
		}
		b.updateParameters(ctx, chatID, app.ParametersUpdate{Adaptive: &on})

	case "whitelist":
		b.updateParameters(ctx, chatID, app.ParametersUpdate{Whitelist: &args})

	case "settings":
		b.sendSettings(ctx, chatID)

	case "inspect", "check":
		b.handleInspect(ctx, chatID)

	case "clear", "cancel":
		if err := b.workspace.Clear(ctx, chatID); err != nil {
			b.internalError(chatID, err)
			return
		}
		b.sendMessage(chatID, msgCleared)

	case "reset":
		if err := b.workspace.Reset(ctx, chatID); err != nil {
			b.internalError(chatID, err)
			return
		}
		b.sendMessage(chatID, msgReset)
		b.sendSettings(ctx, chatID)

	case "history":
		rows, err := b.workspace.History(ctx, chatID)
		if err != nil {
			b.internalError(chatID, err)
			return
		}
		b.sendHTML(chatID, renderHistory(rows))

	case "export":
		b.handleExport(ctx, chatID)

	case "json":
		b.handleCopyJSON(ctx, chatID)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает нажатия на кнопки выбора детали и режима
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("failed to answer callback")
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	switch {
	case strings.HasPrefix(q.Data, callbackPart):
		part := strings.TrimPrefix(q.Data, callbackPart)
		b.updateParameters(ctx, chatID, app.ParametersUpdate{PartID: &part})
	case strings.HasPrefix(q.Data, callbackPSM):
		psm := strings.TrimPrefix(q.Data, callbackPSM)
		b.updateParameters(ctx, chatID, app.ParametersUpdate{PSM: &psm})
	}
}

// handleDocument принимает изображение, присланное файлом
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if err := b.workspace.DragEnter(ctx, chatID); err != nil {
		b.internalError(chatID, err)
		return
	}
	// Видимый отклик, пока файл скачивается.
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadPhoto)); err != nil {
		b.log.Debug().Err(err).Msg("chat action failed")
	}

	name := msg.Document.FileName
	if name == "" {
		name = "document"
	}
	b.acceptImage(ctx, chatID, msg.Document.FileID, name, entity.SourceDrop)
}

// acceptImage скачивает файл и делает его текущим изображением сессии
func (b *Bot) acceptImage(ctx context.Context, chatID int64, fileID, name string, source entity.ImageSource) {
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat", chatID).Msg("error downloading image")
		if source == entity.SourceDrop {
			_ = b.workspace.DragLeave(ctx, chatID)
		}
		b.sendMessage(chatID, msgDownloadFailed)
		return
	}

	img, err := b.workspace.AcceptImage(ctx, chatID, name, data, source)
	if err != nil {
		if errors.Is(err, entity.ErrImageDecode) {
			b.sendMessage(chatID, msgImageRejected)
			return
		}
		b.internalError(chatID, err)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf(msgImageLoadedTmpl, img.Width, img.Height))
}

// handleInspect отправляет изображение на проверку. Ответ обрабатывается в отдельной
// горутине, чтобы цикл обновлений не ждал сервис.
func (b *Bot) handleInspect(ctx context.Context, chatID int64) {
	req, err := b.workspace.Begin(ctx, chatID)
	if errors.Is(err, entity.ErrNoImage) {
		b.sendMessage(chatID, msgNoImage)
		return
	}
	if err != nil {
		b.internalError(chatID, err)
		return
	}

	b.sendMessage(chatID, msgProcessing)
	go b.finishInspection(ctx, chatID, req)
}

func (b *Bot) finishInspection(ctx context.Context, chatID int64, req *entity.InspectionRequest) {
	out, err := b.workspace.Execute(ctx, chatID, req)
	if errors.Is(err, entity.ErrStaleResponse) {
		// Уже отправлен более новый запрос или сессия очищена.
		return
	}
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if out.State == entity.StateFailed {
		b.sendMessage(chatID, msgRequestFailed)
		return
	}

	b.sendHTML(chatID, renderResult(*out.View))

	if !out.View.HasBBox {
		return
	}
	preview, ok, err := b.workspace.Preview(ctx, chatID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat", chatID).Msg("failed to compose overlay")
		return
	}
	if ok {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "overlay.jpg", Bytes: preview})
		photo.Caption = "BBox: " + out.View.BBox
		b.send(photo)
	}
}

// handleExport отправляет журнал CSV-файлом. Пустой журнал не отправляется.
func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	exp, ok, err := b.workspace.ExportHistory(ctx, chatID)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if !ok {
		return
	}
	b.send(tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: exp.Filename, Bytes: exp.Data}))
}

// handleCopyJSON присылает последний ответ сервиса с отступами, если он есть.
func (b *Bot) handleCopyJSON(ctx context.Context, chatID int64) {
	js, ok, err := b.workspace.LastResultJSON(ctx, chatID)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if !ok {
		return
	}
	if text, fits := renderJSON(js); fits {
		b.sendHTML(chatID, text)
		return
	}
	b.send(tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "result.json", Bytes: []byte(js)}))
}

func (b *Bot) updateParameters(ctx context.Context, chatID int64, upd app.ParametersUpdate) {
	params, err := b.workspace.UpdateParameters(ctx, chatID, upd)
	if errors.Is(err, entity.ErrInvalidInput) {
		b.sendMessage(chatID, "⚠️ "+err.Error())
		return
	}
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	b.sendHTML(chatID, renderParameters(params))
}

func (b *Bot) parameters(ctx context.Context, chatID int64) entity.InspectionParameters {
	session, err := b.workspace.Session(ctx, chatID)
	if err != nil {
		return entity.InspectionParameters{}
	}
	return session.Parameters()
}

func (b *Bot) sendSettings(ctx context.Context, chatID int64) {
	b.sendHTML(chatID, renderParameters(b.parameters(ctx, chatID)))
}

func (b *Bot) sendPartKeyboard(ctx context.Context, chatID int64) {
	m := tgbotapi.NewMessage(chatID, msgChoosePart)
	m.ParseMode = tgbotapi.ModeHTML
	m.ReplyMarkup = catalogKeyboard(b.catalog.Catalog(), b.parameters(ctx, chatID).PartID)
	b.send(m)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("read file: exceeds %d bytes", maxDownloadBytes)
	}

	return data, nil
}

func (b *Bot) internalError(chatID int64, err error) {
	b.log.Error().Err(err).Int64("chat", chatID).Msg("workspace error")
	b.sendMessage(chatID, msgInternalError)
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// sendHTML отправляет сообщение с HTML-разметкой
func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error().Err(err).Msg("error sending message")
	}
}
