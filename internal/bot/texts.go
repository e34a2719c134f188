package bot

import (
	"fmt"
	"strings"

	"github.com/kentavrex/topfit/internal/conversation"
	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/types"
)

const (
	textIntro = "Что умеет бот TopFit:\n" +
		"- 🎯Поможет определиться с целью по вашей дневной норме КБЖУ (Цель)\n" +
		"- 🧮Посчитает за вас калории блюда по тексту, фото или голосовому сообщению (Добавить блюдо)\n" +
		"- 🔥Будет отслеживать за вас статистику добавленных блюд за день (Статистика)\n" +
		"- 🍽Порекомендует блюдо на основе ваших предпочтений и дневной КБЖУ из цели (AI рекомендация)\n"

	textMainMenu          = "К главному меню"
	textSendDish          = "Отправьте текст/(аудио/фото) блюда"
	textStatisticsUpdated = "Статистика обновлена!"
	textGoalUpdated       = "Цель обновлена!"
	textUnknownCommand    = "Не понимаю команду. Выберите действие в меню."
	textPressAddDish      = "Чтобы посчитать КБЖУ блюда, нажмите «Добавить блюдо»."
	textUnsupportedDish   = "Отправьте текст, фото или голосовое сообщение с блюдом."
	textRecognitionFailed = "Не удалось распознать блюдо. Попробуйте ещё раз чуть позже или опишите его текстом."
	textVoiceDisabled     = "Голосовые сообщения сейчас не поддерживаются. Отправьте текст или фото блюда."
	textRecognitionLimit  = "Вы добавили слишком много блюд за последний час. Попробуйте позже."
	textRecommendLimit    = "Лимит рекомендаций на этот час исчерпан. Попробуйте позже."
	textRecommendFailed   = "Не удалось подобрать блюдо. Попробуйте ещё раз чуть позже."
	textGoalNotSet        = "У вас ещё нет заданной цели. Задайте её сейчас, чтобы получать рекомендации."
	textWebDisabled       = "Веб-доступ сейчас недоступен."
	textReportDisabled    = "Отчёт за месяц сейчас недоступен."
	textInternalError     = "Что-то пошло не так. Попробуйте ещё раз позже."

	textRecommendationIntro = "🍽 *Рекомендуемое блюдо*\n" +
		"Мы учитываем вашу дневную цель и статистику по КБЖУ, а также предпочтения, основанные на истории ваших блюд, " +
		"чтобы предложить вам блюдо, которое вам точно понравится и будет вписываться в дневную норму."

	textRecommendationNeedsGoal = "Персональная рекомендация блюда AI рассчитывается " +
		"на основе ваших добавленных ранее блюд, а также на основе " +
		"вашей дневной цели и статистики по КБЖУ.\n" +
		"Вам необходимо задать *Цель* в панели Меню"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape makes user or model text safe inside a Markdown message
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func greeting(u types.User) string {
	return fmt.Sprintf("Привет, %s! Выберите действие в меню.", u.DisplayName())
}

func newUserNotice(u types.User) string {
	msg := fmt.Sprintf("Новый пользователь бота:\nID: %d\nИмя: %s", u.TelegramID, strings.TrimSpace(u.FirstName+" "+u.LastName))
	if u.Username != "" {
		msg += "\n\n@" + u.Username
	}
	return msg
}

func nutritionLines(n types.NutritionData) string {
	return fmt.Sprintf(
		"🥩 *Белки:* %.1f г\n"+
			"🧈 *Жиры:* %.1f г\n"+
			"🍞 *Углеводы:* %.1f г\n"+
			"🔥 *Калории:* %.1f ккал\n",
		n.Protein, n.Fat, n.Carbohydrates, n.Calories)
}

func dishMessage(d *types.Dish) string {
	return fmt.Sprintf("🍽 *Блюдо:* %s\n", escape(d.Name)) + nutritionLines(d.NutritionData)
}

func dailyStatisticsMessage(s *types.CountedStatistics) string {
	return "📅 *Статистика за сегодня*:\n" + nutritionLines(s.NutritionData)
}

func goalMessage(n types.NutritionData) string {
	return "📅 *Ваша дневная цель КБЖУ*:\n" + nutritionLines(n)
}

func recommendationMessage(r *types.DishRecommendation) string {
	per := r.PerServing()
	return fmt.Sprintf(
		"*Блюдо*: %s\n\n"+
			"*Состав*:\n"+
			"• Белки: %.1f г\n"+
			"• Жиры: %.1f г\n"+
			"• Углеводы: %.1f г\n"+
			"• Калории: %.1f ккал\n",
		escape(r.Name), per.Protein, per.Fat, per.Carbohydrates, per.Calories)
}

func recipeMessage(r *types.DishRecommendation) string {
	return fmt.Sprintf("📝 *Рецепт на кол-во блюд: %d*:\n%s\n\nПриятного аппетита! 😋", r.Servings(), escape(r.Receipt))
}

func monthlyCaption(r *service.MonthlyReport) string {
	caption := fmt.Sprintf("📊 Статистика за %d дней\nВ среднем за день: белки %.1f г, жиры %.1f г, углеводы %.1f г, калории %.1f ккал",
		len(r.Days), r.Average.Protein, r.Average.Fat, r.Average.Carbohydrates, r.Average.Calories)
	if r.Goal != nil {
		caption += fmt.Sprintf("\nДневная цель: %.1f ккал", r.Goal.Calories)
	}
	return caption
}

func webAccessMessage(token string) string {
	return "🔑 Токен для веб-доступа к вашей статистике:\n\n`" + token + "`\n\n" +
		"Передавайте его в заголовке Authorization: Bearer <токен>."
}

// question returns the prompt and keyboard for a questionnaire step
func question(state conversation.State) (string, Keyboard) {
	switch state {
	case conversation.StateWaitingHeight:
		return "Рост (см):", nil
	case conversation.StateWaitingWeight:
		return "Вес (кг):", nil
	case conversation.StateWaitingAge:
		return "Возраст:", nil
	case conversation.StateWaitingGender:
		return "Выберите пол (м/ж):", genderKeyboard
	case conversation.StateWaitingActivity:
		return "Выберите уровень активности:\n" + types.ActivityOptions(), numberKeyboard
	case conversation.StateWaitingGoal:
		return "Выберите номер вашей цели:\n" + types.GoalOptions(), numberKeyboard
	}
	return "", nil
}
