package models

import "time"

type LessonCategory string

const (
	CategoryGrammar      LessonCategory = "Grammar"
	CategoryVocabulary   LessonCategory = "Vocabulary"
	CategoryConversation LessonCategory = "Conversation"
	CategoryReading      LessonCategory = "Reading"
	CategoryListening    LessonCategory = "Listening"
)

type Lesson struct {
	ID          uint           `json:"id" gorm:"primaryKey" bson:"_id"`
	Title       string         `json:"title" gorm:"not null;size:200" bson:"title" validate:"required,max=200"`
	Description string         `json:"description" gorm:"type:text" bson:"description" validate:"required"`
	Level       int            `json:"level" gorm:"not null" bson:"level" validate:"min=1,max=10"`
	Category    LessonCategory `json:"category" gorm:"type:varchar(32);not null" bson:"category" validate:"required,lesson_category"`
	Order       int            `json:"order" gorm:"column:display_order;not null" bson:"order"`
	Duration    int            `json:"duration" gorm:"not null" bson:"duration"` // minutes
	IsPublished bool           `json:"is_published" gorm:"default:false" bson:"is_published"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	// Relations
	Exercises []Exercise `json:"exercises,omitempty" gorm:"foreignKey:LessonID" bson:"-"`
}

func (Lesson) TableName() string {
	return "lessons"
}
