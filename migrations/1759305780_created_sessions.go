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
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("sessions")
		collection.ListRule = types.Pointer("")
		collection.ViewRule = types.Pointer("")

		collection.Fields.Add(
			&core.TextField{
				Name:     "title",
				Required: true,
				Max:      400,
			},
			&core.EditorField{Name: "description"},
			&core.SelectField{
				Name:      "session_type",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"Talk", "Lighting Talk", "WorkShop"},
			},
			&core.SelectField{
				Name:      "status",
				MaxSelect: 1,
				Values:    []string{"Draft", "Accepted", "Denied"},
			},
			&core.TextField{
				Name:     "slug",
				Required: true,
				Max:      255,
				Pattern:  `^[-a-zA-Z0-9_]+$`,
			},
			&core.RelationField{
				Name:          "event",
				CollectionId:  events.Id,
				MaxSelect:     1,
				Required:      true,
				CascadeDelete: true,
			},
			&core.RelationField{
				Name:          "proposed_by",
				CollectionId:  users.Id,
				MaxSelect:     1,
				Required:      true,
				CascadeDelete: true,
			},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_sessions_slug", true, "slug", "")
		collection.AddIndex("idx_sessions_event_status", false, "event, status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("sessions")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
