package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"cardtrack/models"
)

func createUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password := args[0], args[1]
			gdb, err := openDBMigrated()
			if err != nil {
				return err
			}

			// ensure the user role exists
			var role models.Role
			if err := gdb.Where("name = ?", "user").First(&role).Error; err != nil {
				role = models.Role{Name: "user", Description: "regular user"}
				gdb.Create(&role)
			}

			var existing models.User
			if err := gdb.Where("username = ?", username).First(&existing).Error; err == nil {
				fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
				return nil
			}

			hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("bcrypt: %w", err)
			}
			rid := role.ID
			user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
			if err := gdb.Create(&user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Printf("created user %s id=%d\n", username, user.ID)
			return nil
		},
	}
}
