package employee

import "time"

type Employee struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	FirstName  string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName   string    `gorm:"column:last_name;type:varchar(100);not null"`
	Email      string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone      string    `gorm:"column:phone;type:varchar(30);not null"`
	Department string    `gorm:"column:department;type:varchar(50);not null;check:employees_department_check,department IN ('IT','HR','Finance','Marketing','Operations','Sales','Research')"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime;not null"`
}

func (Employee) TableName() string {
	return "employees"
}
