package types

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// NutritionData holds KBJU values: protein, fat and carbohydrates in grams,
// calories in kcal
type NutritionData struct {
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Calories      float64 `json:"calories"`
}

// Add returns the field-wise sum
func (n NutritionData) Add(o NutritionData) NutritionData {
	return NutritionData{
		Protein:       n.Protein + o.Protein,
		Fat:           n.Fat + o.Fat,
		Carbohydrates: n.Carbohydrates + o.Carbohydrates,
		Calories:      n.Calories + o.Calories,
	}
}

// Sub returns the field-wise difference
func (n NutritionData) Sub(o NutritionData) NutritionData {
	return NutritionData{
		Protein:       n.Protein - o.Protein,
		Fat:           n.Fat - o.Fat,
		Carbohydrates: n.Carbohydrates - o.Carbohydrates,
		Calories:      n.Calories - o.Calories,
	}
}

// Max returns the field-wise maximum
func (n NutritionData) Max(o NutritionData) NutritionData {
	return NutritionData{
		Protein:       math.Max(n.Protein, o.Protein),
		Fat:           math.Max(n.Fat, o.Fat),
		Carbohydrates: math.Max(n.Carbohydrates, o.Carbohydrates),
		Calories:      math.Max(n.Calories, o.Calories),
	}
}

// Round rounds every field to one decimal place
func (n NutritionData) Round() NutritionData {
	return NutritionData{
		Protein:       Round1(n.Protein),
		Fat:           Round1(n.Fat),
		Carbohydrates: Round1(n.Carbohydrates),
		Calories:      Round1(n.Calories),
	}
}

// PerServing divides every field by servings. servings <= 0 counts as one.
func (n NutritionData) PerServing(servings int) NutritionData {
	if servings <= 0 {
		servings = 1
	}
	d := float64(servings)
	return NutritionData{
		Protein:       n.Protein / d,
		Fat:           n.Fat / d,
		Carbohydrates: n.Carbohydrates / d,
		Calories:      n.Calories / d,
	}
}

// Round1 rounds v to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Nutrition is a stored nutrition record
type Nutrition struct {
	ID uint `json:"id"`
	NutritionData
}

// DishData is a recognized dish before it is stored
type DishData struct {
	Name string `json:"name"`
	NutritionData
}

// Dish is a stored dish
type Dish struct {
	ID       uint   `json:"id"`
	ImageURL string `json:"image_url,omitempty"`
	DishData
}

// DishRecommendation is a generated dish. Nutrition values cover all servings.
type DishRecommendation struct {
	DishData
	Receipt       string `json:"receipt"`
	ServingsCount int    `json:"servings_count"`
}

// Servings returns the servings count, never less than one
func (r DishRecommendation) Servings() int {
	if r.ServingsCount <= 0 {
		return 1
	}
	return r.ServingsCount
}

// PerServing returns the nutrition of a single serving
func (r DishRecommendation) PerServing() NutritionData {
	return r.NutritionData.PerServing(r.Servings())
}

// Recommendation is a stored recommendation joined with its dish
type Recommendation struct {
	ID            uint      `json:"id"`
	Dish          Dish      `json:"dish"`
	Receipt       string    `json:"receipt"`
	ServingsCount int       `json:"servings_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ActivityType is the daily activity level used by the goal calculator
type ActivityType int

const (
	ActivityMinimum ActivityType = iota + 1
	ActivityAverage
	ActivityMaximum
)

var activityTitles = map[ActivityType]string{
	ActivityMinimum: "Минимальная",
	ActivityAverage: "Средняя",
	ActivityMaximum: "Высокая",
}

var activityFactors = map[ActivityType]float64{
	ActivityMinimum: 1.2,
	ActivityAverage: 1.55,
	ActivityMaximum: 1.7,
}

// Title returns the human readable name
func (a ActivityType) Title() string { return activityTitles[a] }

// Factor returns the BMR multiplier
func (a ActivityType) Factor() float64 { return activityFactors[a] }

// Valid reports whether a is a known activity level
func (a ActivityType) Valid() bool {
	_, ok := activityFactors[a]
	return ok
}

// ActivityFromNumber maps a menu number to an activity level
func ActivityFromNumber(n int) (ActivityType, error) {
	a := ActivityType(n)
	if !a.Valid() {
		return 0, fmt.Errorf("unknown activity number %d", n)
	}
	return a, nil
}

// ActivityOptions renders the numbered activity menu
func ActivityOptions() string {
	return options([]string{
		activityTitles[ActivityMinimum],
		activityTitles[ActivityAverage],
		activityTitles[ActivityMaximum],
	})
}

// GoalType is what the user wants from their diet
type GoalType int

const (
	GoalLose GoalType = iota + 1
	GoalSupport
	GoalGain
)

var goalTitles = map[GoalType]string{
	GoalLose:    "Сброс веса",
	GoalSupport: "Поддержка формы",
	GoalGain:    "Набор массы",
}

var goalFactors = map[GoalType]float64{
	GoalLose:    0.85,
	GoalSupport: 1.0,
	GoalGain:    1.15,
}

// Title returns the human readable name
func (g GoalType) Title() string { return goalTitles[g] }

// Factor returns the calorie multiplier
func (g GoalType) Factor() float64 { return goalFactors[g] }

// Valid reports whether g is a known goal
func (g GoalType) Valid() bool {
	_, ok := goalFactors[g]
	return ok
}

// GoalFromNumber maps a menu number to a goal
func GoalFromNumber(n int) (GoalType, error) {
	g := GoalType(n)
	if !g.Valid() {
		return 0, fmt.Errorf("unknown goal number %d", n)
	}
	return g, nil
}

// GoalOptions renders the numbered goal menu
func GoalOptions() string {
	return options([]string{
		goalTitles[GoalLose],
		goalTitles[GoalSupport],
		goalTitles[GoalGain],
	})
}

func options(titles []string) string {
	var b strings.Builder
	for i, t := range titles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d - %s", i+1, t)
	}
	return b.String()
}

// NutritionGoalInput is a finished questionnaire
type NutritionGoalInput struct {
	Height   float64      `json:"height"`
	Weight   float64      `json:"weight"`
	Age      int          `json:"age"`
	IsMale   bool         `json:"is_male"`
	Activity ActivityType `json:"activity"`
	Goal     GoalType     `json:"goal"`
}

// CountedStatistics is the nutrition eaten by a user within [ValidFrom, ValidTo)
type CountedStatistics struct {
	UserID    int64     `json:"user_id"`
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
	NutritionData
}

// User is a bot user identified by their Telegram id
type User struct {
	TelegramID      int64  `json:"telegram_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name,omitempty"`
	Username        string `json:"username,omitempty"`
	NutritionGoalID *uint  `json:"nutrition_goal_id,omitempty"`
}

// DisplayName returns the best available name for messages
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprint(u.TelegramID)
}
