package game

import (
	"github.com/google/uuid"
)

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// ShortID 取 UUIDv7 的随机尾部，足够在一张桌面内区分座位与连接
func ShortID() string {
	id := GenID()
	return id[len(id)-8:]
}
