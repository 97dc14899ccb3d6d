package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		users.Fields.Add(
			&core.TextField{
				Name:     "username",
				Required: true,
				Max:      150,
				Pattern:  `^[\w.@+-]+$`,
			},
			&core.TextField{
				Name: "phone_number",
				Max:  17,
			},
		)
		users.AddIndex("idx_users_username", true, "username", "")
		users.PasswordAuth.IdentityFields = []string{"email", "username"}

		return app.Save(users)
	}, func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		users.PasswordAuth.IdentityFields = []string{"email"}
		users.RemoveIndex("idx_users_username")
		users.Fields.RemoveByName("username")
		users.Fields.RemoveByName("phone_number")

		return app.Save(users)
	})
}
