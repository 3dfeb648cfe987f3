package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads configuration in priority order: defaults, the YAML file at
// configPath (optional), then BOT_* environment variables. The result is
// validated; a missing bot token or empty admin list is an error, which the
// caller treats as fatal.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; environment variables may carry
		// everything required.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	// Weak typing lets a BOT_TELEGRAM_ADMIN_IDS string like "123,456"
	// decode into the int slice.
	weakDecode := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weakDecode); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Space- or semicolon-separated admin lists bypass viper's comma hook.
	if len(cfg.Telegram.AdminIDs) == 0 {
		ids, err := ParseAdminIDs(v.GetString("telegram.admin_ids"))
		if err != nil {
			return nil, fmt.Errorf("invalid telegram.admin_ids: %w", err)
		}
		cfg.Telegram.AdminIDs = ids
	}

	if cfg.Telegram.PrimaryAdminID == 0 && len(cfg.Telegram.AdminIDs) > 0 {
		cfg.Telegram.PrimaryAdminID = cfg.Telegram.AdminIDs[0]
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ParseAdminIDs parses a comma- or space-separated list of user identifiers.
// An empty input yields an empty list; validation rejects that later.
func ParseAdminIDs(raw string) ([]int64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a user id: %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	// Register env-only keys so Unmarshal sees BOT_TELEGRAM_* variables.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", "")
	v.SetDefault("telegram.primary_admin_id", 0)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("broadcast.send_interval", 50*time.Millisecond)
	v.SetDefault("broadcast.retry_margin", time.Second)

	v.SetDefault("messages.welcome", "Вітаємо у «Заморських подарунках»! 🎁 Оберіть дію з меню нижче.")
	v.SetDefault("messages.menu_hint", "Скористайтеся кнопками меню, щоб продовжити.")
	v.SetDefault("messages.ask_question", "Напишіть ваше запитання, і оператор відповість вам найближчим часом.")
	v.SetDefault("messages.ask_name", "Вкажіть, будь ласка, ваше ім'я та прізвище.")
	v.SetDefault("messages.ask_order_number", "Вкажіть номер замовлення.")
	v.SetDefault("messages.form_accepted", "Дякуємо! Ваш запит передано оператору. Очікуйте на відповідь.")
	v.SetDefault("messages.cancelled", "Дію скасовано.")
	v.SetDefault("messages.general_error", "Сталася помилка. Спробуйте, будь ласка, ще раз.")

	v.SetDefault("messages.ask_broadcast_content", "Надішліть текст або фото з підписом для розсилки.")
	v.SetDefault("messages.broadcast_summary", "Розсилка завершена. Успішно: %d, видалено зі списку: %d.")

	v.SetDefault("messages.ask_arrival_photo", "Надішліть фото нового товару.")
	v.SetDefault("messages.ask_arrival_title", "Введіть назву товару.")
	v.SetDefault("messages.ask_arrival_price", "Введіть ціну товару.")
	v.SetDefault("messages.arrival_published", "Новинку опубліковано та розіслано підписникам.")
	v.SetDefault("messages.no_arrivals", "Нових надходжень поки немає. Зазирніть пізніше!")

	v.SetDefault("messages.reply_delivered", "✅ Надіслано користувачу")
	v.SetDefault("messages.reply_recipient_gone", "Користувач заблокував бота або недоступний")
	v.SetDefault("messages.reply_unknown_thread", "Не вдалося визначити одержувача. Відповідайте реплаєм на повідомлення запиту.")
	v.SetDefault("messages.reply_send_error", "Помилка відправки: %v")
	v.SetDefault("messages.not_authorized", "Ця команда доступна лише персоналу.")

	v.SetDefault("scheduler.tasks", map[string]any{
		"sql_maintenance": map[string]any{
			"enabled":  true,
			"schedule": "0 0 4 * * *",
		},
		"subscriber_report": map[string]any{
			"enabled":  true,
			"schedule": "0 0 9 * * *",
		},
	})
}
