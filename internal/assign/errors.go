package assign

import (
	"errors"
	"fmt"

	"storyteller-be/internal/catalog"
)

var (
	ErrUnsupportedPlayerCount = errors.New("不支持的玩家人数")
	ErrInsufficientRoles      = errors.New("剧本角色不足")
)

type UnsupportedPlayerCountError struct {
	Count     int
	Supported []int
}

func (e *UnsupportedPlayerCountError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("不支持 %d 名玩家", e.Count)
	}

	return fmt.Sprintf(
		"不支持 %d 名玩家，仅支持 %d–%d 人",
		e.Count,
		e.Supported[0],
		e.Supported[len(e.Supported)-1],
	)
}

func (e *UnsupportedPlayerCountError) Is(target error) bool {
	return target == ErrUnsupportedPlayerCount
}

type InsufficientRolesError struct {
	Category catalog.Category
	Need     int
	Have     int
}

func (e *InsufficientRolesError) Error() string {
	return fmt.Sprintf(
		"剧本中 %s 角色不足：需要 %d 个，只有 %d 个",
		e.Category.Short(),
		e.Need,
		e.Have,
	)
}

func (e *InsufficientRolesError) Is(target error) bool {
	return target == ErrInsufficientRoles
}
