package model

import "time"

const TableNameSetting = "setting"

// Setting is a key value pair for runtime-editable service settings.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey" json:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName Setting's table name
func (*Setting) TableName() string {
	return TableNameSetting
}
