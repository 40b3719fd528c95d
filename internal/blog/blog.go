package blog

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrBlogNotFound    = errors.New("blog not found")
	ErrForbidden       = errors.New("not the blog author")
	ErrInvalidCategory = errors.New("invalid blog category")
)

type Category string

const (
	CategoryBusiness      Category = "Business"
	CategoryTech          Category = "Tech"
	CategoryLifestyle     Category = "Lifestyle"
	CategoryEntertainment Category = "Entertainment"
)

var Categories = []Category{
	CategoryBusiness,
	CategoryTech,
	CategoryLifestyle,
	CategoryEntertainment,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Comment struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

type Blog struct {
	ID       string    `json:"id"`
	Author   string    `json:"author"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Category Category  `json:"category,omitempty"`
	Date     time.Time `json:"date"`
	Likes    int       `json:"likes"`
	Comments []Comment `json:"comments"`
}

// Input carries the client-editable fields of a blog, for create and update.
// Title is not enforced (empty titles were always accepted), only the
// category has to be one of the known ones when given.
type Input struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category" validate:"omitempty,blog_category"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("blog_category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("register blog_category validation: %s", err))
	}
	return v
}

func (in Input) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: [%s]", ErrInvalidCategory, in.Category)
	}
	return nil
}
