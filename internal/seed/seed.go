package seed

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/models"
)

// Projects returns the demo catalog: 24 projects cycling through three
// branches, every fifth featured, one to four tags each.
func Projects() []models.Project {
	branches := []string{
		"Computer Science Engineering",
		"Electronics and Communication Engineering",
		"Mechanical Engineering",
	}
	tags := []string{"react", "node", "ml", "iot"}

	out := make([]models.Project, 0, 24)
	for i := 0; i < 24; i++ {
		out = append(out, models.Project{
			Title:       fmt.Sprintf("Project %d", i+1),
			Description: "A great project",
			Branch:      branches[i%3],
			Tags:        models.StringList(tags[:(i%4)+1]),
			IsFeatured:  i%5 == 0,
			Approved:    true,
			Price:       float64(499 + (i%5)*200),
		})
	}
	return out
}

// Apply inserts the demo catalog into an empty projects table.
func Apply(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Project{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	projects := Projects()
	return db.Create(&projects).Error
}
