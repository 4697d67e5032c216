package types

import "github.com/city-guide/api-go/models"

var CategoryLabels = map[models.LocationCategory]string{
	models.CategoryHotel:             "Hotels",
	models.CategoryBar:               "Bars",
	models.CategoryRestaurant:        "Restaurants",
	models.CategoryNightClub:         "Night Clubs",
	models.CategoryTouristAttraction: "Tourist Attractions",
}

// CategoryGoogleTypes maps each category to the maps API place type used for
// nearby searches.
var CategoryGoogleTypes = map[models.LocationCategory]string{
	models.CategoryHotel:             "lodging",
	models.CategoryBar:               "bar",
	models.CategoryRestaurant:        "restaurant",
	models.CategoryNightClub:         "night_club",
	models.CategoryTouristAttraction: "tourist_attraction",
}

var categoryIcons = map[models.LocationCategory]string{
	models.CategoryHotel:             "bed",
	models.CategoryBar:               "beer",
	models.CategoryRestaurant:        "utensils",
	models.CategoryNightClub:         "music",
	models.CategoryTouristAttraction: "landmark",
}

// DefaultCategories returns the rows seeded into the categories table.
func DefaultCategories() []models.Category {
	categories := make([]models.Category, 0, len(models.AllCategories))
	for _, id := range models.AllCategories {
		categories = append(categories, models.Category{
			ID:   id,
			Name: CategoryLabels[id],
			Slug: string(id),
			Icon: categoryIcons[id],
		})
	}
	return categories
}
