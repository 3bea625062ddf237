// Package storage is the device-local store standing in for the mobile
// app's device storage: the bearer credential under a fixed key and
// per-conversation composer drafts, so a failed send never loses input.
package storage

import (
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// credentialKey is the single fixed key the credential lives under,
// mirroring the mobile app's storage key.
const credentialKey = "auth"

// ErrNoCredential is returned when no credential is stored; callers
// redirect to login.
var ErrNoCredential = errors.New("no stored credential")

// Credential is the persisted login state, loaded once at startup and
// cleared on logout.
type Credential struct {
	Key       string `gorm:"primaryKey"`
	Token     string
	UserID    int64
	UserName  string
	Role      string
	UpdatedAt time.Time
}

// Draft is the composer text for one conversation.
type Draft struct {
	ConversationID int64 `gorm:"primaryKey"`
	Body           string
	UpdatedAt      time.Time
}

type Device struct {
	db *gorm.DB
}

// Open opens (and migrates) the device store at path. ":memory:" works
// for tests.
func Open(path string) (*Device, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Credential{}, &Draft{}); err != nil {
		return nil, err
	}
	return &Device{db: db}, nil
}

func (d *Device) SaveCredential(token string, userID int64, userName, role string) error {
	cred := Credential{
		Key:      credentialKey,
		Token:    token,
		UserID:   userID,
		UserName: userName,
		Role:     role,
	}
	return d.db.Save(&cred).Error
}

func (d *Device) LoadCredential() (Credential, error) {
	var cred Credential
	err := d.db.First(&cred, "key = ?", credentialKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Credential{}, ErrNoCredential
	}
	return cred, err
}

// ClearCredential logs the device out.
func (d *Device) ClearCredential() error {
	return d.db.Delete(&Credential{}, "key = ?", credentialKey).Error
}

func (d *Device) SaveDraft(conversationID int64, body string) error {
	if body == "" {
		return d.DeleteDraft(conversationID)
	}
	return d.db.Save(&Draft{ConversationID: conversationID, Body: body}).Error
}

func (d *Device) LoadDraft(conversationID int64) (string, error) {
	var draft Draft
	err := d.db.First(&draft, "conversation_id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return draft.Body, err
}

func (d *Device) DeleteDraft(conversationID int64) error {
	return d.db.Delete(&Draft{}, "conversation_id = ?", conversationID).Error
}
