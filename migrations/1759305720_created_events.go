package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		tags, err := app.FindCollectionByNameOrId("tags")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("events")
		// writes go through the /api/v1 routes
		collection.ListRule = types.Pointer("")
		collection.ViewRule = types.Pointer("")

		collection.Fields.Add(
			&core.TextField{
				Name:     "title",
				Required: true,
				Max:      400,
			},
			&core.EditorField{Name: "description"},
			&core.NumberField{
				Name:    "read_time",
				Min:     types.Pointer(0.0),
				OnlyInt: true,
			},
			&core.TextField{
				Name:     "slug",
				Required: true,
				Max:      255,
				Pattern:  `^[-a-zA-Z0-9_]+$`,
			},
			&core.DateField{
				Name:     "event_date",
				Required: true,
			},
			&core.NumberField{
				Name:    "total_guest",
				Min:     types.Pointer(1.0),
				OnlyInt: true,
			},
			&core.RelationField{
				Name:          "hosted_by",
				CollectionId:  users.Id,
				MaxSelect:     1,
				Required:      true,
				CascadeDelete: true,
			},
			&core.RelationField{
				Name:         "organizers",
				CollectionId: users.Id,
				MaxSelect:    999,
			},
			&core.RelationField{
				Name:         "tags",
				CollectionId: tags.Id,
				MaxSelect:    999,
			},
			&core.FileField{
				Name:      "cover",
				MaxSelect: 1,
				MaxSize:   5 << 20,
				MimeTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			},
			&core.JSONField{
				Name:    "geom",
				MaxSize: 2000,
			},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_events_slug", true, "slug", "")
		collection.AddIndex("idx_events_event_date", false, "event_date", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
