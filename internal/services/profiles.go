package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"community-service/internal/apperr"
	"community-service/internal/models"
	"community-service/internal/repository"
	"community-service/internal/storage"
	"community-service/pkg/logger"

	"go.uber.org/zap"
)

// FieldCipher is implemented by crypto.Cipher.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encoded string) (string, error)
}

// TaskIDLister finds the tasks that will disappear with a profile.
type TaskIDLister interface {
	IDs(ctx context.Context, f repository.TaskFilter) ([]int, error)
}

// decodeDataURL accepts "data:image/...;base64,<payload>" or a bare base64
// payload.
func decodeDataURL(raw string) ([]byte, error) {
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		_, after, found := strings.Cut(raw, ",")
		if !found {
			return nil, apperr.Invalidf("Invalid image data")
		}
		payload = after
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "Invalid image data")
	}
	return data, nil
}

// saveProfileImage writes the image as profile_pics/<userID>/<userID>.jpg.
func saveProfileImage(files FileStore, userID int, dataURL string) (string, error) {
	data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	rel, err := files.Save(storage.ProfileDir(userID), fmt.Sprintf("%d.jpg", userID), bytes.NewReader(data))
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "save profile image")
	}
	return rel, nil
}

// checkProfileOwner verifies the account a profile is registered for.
func checkProfileOwner(ctx context.Context, accounts AccountStore, userID int, want models.Role, wrongRole string) error {
	acc, err := accounts.GetByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return apperr.NotFoundf("User not found!")
		}
		return err
	}
	if acc.Role != want {
		return apperr.Invalidf("%s", wrongRole)
	}
	return nil
}

func checkCompany(ctx context.Context, companies CompanyStore, id int) error {
	if _, err := companies.GetByID(ctx, id); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return apperr.NotFoundf("Company does not exist! Check the company ID.")
		}
		return err
	}
	return nil
}

func removeProfileDir(files FileStore, userID int) {
	if err := files.RemoveAll(storage.ProfileDir(userID)); err != nil {
		logger.ErrorLogger.Error("Failed to remove profile directory", zap.Int("user_id", userID), zap.Error(err))
	}
}
