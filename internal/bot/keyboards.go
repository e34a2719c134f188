package bot

var (
	UserKeyboard = Keyboard{
		{"Текущая цель", "Обновить цель", "Статистика"},
		{"Добавить блюдо", "Статистика за месяц"},
		{"AI рекомендация", "Веб-доступ"},
	}

	// GoalUpdateKeyboard is shown with an existing goal
	GoalUpdateKeyboard = Keyboard{
		{"Обновить цель"},
		{"Главное меню"},
	}

	GoalSetKeyboard = Keyboard{
		{"Задать цель"},
		{"Главное меню"},
	}

	genderKeyboard = Keyboard{{"м", "ж"}}
	numberKeyboard = Keyboard{{"1", "2", "3"}}
)
