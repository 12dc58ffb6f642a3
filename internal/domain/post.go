package domain

import "time"

type Category string

const (
	CategoryNotice Category = "NOTICE"
	CategoryFree   Category = "FREE"
	CategoryQnA    Category = "QNA"
	CategoryEtc    Category = "ETC"
)

// CategoryLabels maps category keys to the display labels served by
// GET /boards/categories. Order is not significant; clients render the map.
var CategoryLabels = map[string]string{
	string(CategoryNotice): "공지",
	string(CategoryFree):   "자유",
	string(CategoryQnA):    "Q&A",
	string(CategoryEtc):    "기타",
}

func (c Category) Valid() bool {
	_, ok := CategoryLabels[string(c)]
	return ok
}

type Post struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AuthorID  int64     `gorm:"column:author_id;index" json:"author_id"`
	Title     string    `gorm:"column:title;size:200" json:"title"`
	Content   string    `gorm:"column:content;type:text" json:"content"`
	Category  Category  `gorm:"column:category;size:16;index" json:"category"`
	ImagePath string    `gorm:"column:image_path" json:"-"`   // relative disk path, empty when no image
	ImageURL  string    `gorm:"column:image_url" json:"image_url"` // public HTTP URL, empty when no image
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Post) TableName() string { return "posts" }
