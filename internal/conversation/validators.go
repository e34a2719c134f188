package conversation

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/kentavrex/topfit/internal/types"
)

// ValidationError carries the message shown to the user for a bad answer
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a user input problem
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// parseNumber accepts both "72.5" and "72,5"
func parseNumber(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func parseInt(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}

func ValidateHeight(value string) (float64, error) {
	h, err := parseNumber(value)
	if err != nil || h < 50 || h > 250 {
		return 0, invalid("Рост должен быть числом от 50 до 250 см.")
	}
	return h, nil
}

func ValidateWeight(value string) (float64, error) {
	w, err := parseNumber(value)
	if err != nil || w < 20 || w > 300 {
		return 0, invalid("Вес должен быть числом от 20 до 300 кг.")
	}
	return w, nil
}

func ValidateAge(value string) (int, error) {
	a, err := parseInt(value)
	if err != nil || a < 10 || a > 120 {
		return 0, invalid("Возраст должен быть числом от 10 до 120 лет.")
	}
	return a, nil
}

// ValidateGender returns true for male
func ValidateGender(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "м":
		return true, nil
	case "ж":
		return false, nil
	}
	return false, invalid("Введите 'м' (мужской) или 'ж' (женский).")
}

func ValidateActivity(value string) (types.ActivityType, error) {
	n, err := parseInt(value)
	if err != nil {
		return 0, invalid("Введите корректный номер уровня активности.")
	}
	a, err := types.ActivityFromNumber(n)
	if err != nil {
		return 0, invalid("Введите корректный номер уровня активности.")
	}
	return a, nil
}

func ValidateGoal(value string) (types.GoalType, error) {
	n, err := parseInt(value)
	if err != nil {
		return 0, invalid("Введите корректный номер цели.")
	}
	g, err := types.GoalFromNumber(n)
	if err != nil {
		return 0, invalid("Введите корректный номер цели.")
	}
	return g, nil
}

// Validate checks the answer to the question asked in state
func Validate(state State, value string) error {
	var err error
	switch state {
	case StateWaitingHeight:
		_, err = ValidateHeight(value)
	case StateWaitingWeight:
		_, err = ValidateWeight(value)
	case StateWaitingAge:
		_, err = ValidateAge(value)
	case StateWaitingGender:
		_, err = ValidateGender(value)
	case StateWaitingActivity:
		_, err = ValidateActivity(value)
	case StateWaitingGoal:
		_, err = ValidateGoal(value)
	}
	return err
}

// GoalInput builds the calculator input from a completed questionnaire
func (s *Session) GoalInput() (types.NutritionGoalInput, error) {
	var (
		in  types.NutritionGoalInput
		err error
	)
	if in.Height, err = ValidateHeight(s.Get(StateWaitingHeight)); err != nil {
		return in, err
	}
	if in.Weight, err = ValidateWeight(s.Get(StateWaitingWeight)); err != nil {
		return in, err
	}
	if in.Age, err = ValidateAge(s.Get(StateWaitingAge)); err != nil {
		return in, err
	}
	if in.IsMale, err = ValidateGender(s.Get(StateWaitingGender)); err != nil {
		return in, err
	}
	if in.Activity, err = ValidateActivity(s.Get(StateWaitingActivity)); err != nil {
		return in, err
	}
	if in.Goal, err = ValidateGoal(s.Get(StateWaitingGoal)); err != nil {
		return in, err
	}
	return in, nil
}
