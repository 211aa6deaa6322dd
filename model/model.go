package model

import (
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var snowflakeNode *snowflake.Node

var Models = []interface{}{
	&Employee{}, &Session{}, &AuditLog{},
}

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// GenerateID returns a new opaque primary key.
func GenerateID() string {
	return snowflakeNode.Generate().String()
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}
