package domain

import "time"

// CategoryType tells whether a category labels spending or income.
type CategoryType string

const (
	CategoryExpense CategoryType = "EXPENSE"
	CategoryIncome  CategoryType = "INCOME"
)

// IsValid reports whether t is a known category type.
func (t CategoryType) IsValid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

// Category labels transactions. System categories have no owner.
type Category struct {
	ID        string
	OwnerID   string
	Name      string
	Icon      string
	Type      CategoryType
	IsSystem  bool
	CreatedAt time.Time
}

var systemCategories = []Category{
	{ID: "food", Name: "Food", Icon: "🍔", Type: CategoryExpense},
	{ID: "transport", Name: "Transport", Icon: "🚗", Type: CategoryExpense},
	{ID: "entertainment", Name: "Entertainment", Icon: "🎬", Type: CategoryExpense},
	{ID: "health", Name: "Health", Icon: "🏥", Type: CategoryExpense},
	{ID: "education", Name: "Education", Icon: "📚", Type: CategoryExpense},
	{ID: "shopping", Name: "Shopping", Icon: "🛍️", Type: CategoryExpense},
	{ID: "bills", Name: "Bills", Icon: "📄", Type: CategoryExpense},
	{ID: "housing", Name: "Housing", Icon: "🏠", Type: CategoryExpense},
	{ID: "investment", Name: "Investment", Icon: "📈", Type: CategoryExpense},
	{ID: "gift", Name: "Gift", Icon: "🎁", Type: CategoryExpense},
	{ID: "other", Name: "Other", Icon: "📌", Type: CategoryExpense},
	{ID: "salary", Name: "Salary", Icon: "💼", Type: CategoryIncome},
	{ID: "rent-income", Name: "Rental income", Icon: "🏠", Type: CategoryIncome},
	{ID: "other-income", Name: "Other income", Icon: "💰", Type: CategoryIncome},
}

// SystemCategories returns the built-in categories and income sources.
func SystemCategories() []*Category {
	out := make([]*Category, len(systemCategories))
	for i := range systemCategories {
		c := systemCategories[i]
		c.IsSystem = true
		out[i] = &c
	}
	return out
}

// IsSystemCategory reports whether id names a built-in category.
func IsSystemCategory(id string) bool {
	for _, c := range systemCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}
