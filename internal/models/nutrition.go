package models

import "time"

// Nutrition is a KBJU record shared by dishes and user goals
type Nutrition struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Protein       float64   `gorm:"not null" json:"protein"`
	Fat           float64   `gorm:"not null" json:"fat"`
	Carbohydrates float64   `gorm:"not null" json:"carbohydrates"`
	Calories      float64   `gorm:"not null" json:"calories"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName keeps the singular table name used by the SQL migrations
func (Nutrition) TableName() string { return "nutrition" }

// Dish is a recognized or recommended dish
type Dish struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"size:1024" json:"image_url"`
	NutritionID uint      `gorm:"not null" json:"nutrition_id"`
	Nutrition   Nutrition `gorm:"foreignKey:NutritionID" json:"nutrition"`
	CreatedAt   time.Time `json:"created_at"`
}

// Statistics links a user to a dish they ate
type Statistics struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_statistics_user_created" json:"user_id"`
	DishID    uint      `gorm:"not null" json:"dish_id"`
	Dish      Dish      `gorm:"foreignKey:DishID" json:"dish"`
	Like      bool      `gorm:"not null" json:"like"`
	CreatedAt time.Time `gorm:"index:idx_statistics_user_created" json:"created_at"`
}

// TableName keeps the singular table name used by the SQL migrations
func (Statistics) TableName() string { return "statistics" }

// RecommendationHistory is a dish recommended to a user
type RecommendationHistory struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        int64     `gorm:"not null;index" json:"user_id"`
	DishID        uint      `gorm:"not null" json:"dish_id"`
	Dish          Dish      `gorm:"foreignKey:DishID" json:"dish"`
	Receipt       string    `gorm:"type:text" json:"receipt"`
	ServingsCount int       `gorm:"not null;default:1" json:"servings_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName keeps the singular table name used by the SQL migrations
func (RecommendationHistory) TableName() string { return "recommendation_history" }

// All lists every model for auto-migration
func All() []interface{} {
	return []interface{}{
		&Nutrition{},
		&User{},
		&UserProfile{},
		&Dish{},
		&Statistics{},
		&RecommendationHistory{},
	}
}
