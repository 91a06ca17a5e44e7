package catalog

// 角色阵营。已知取值如下，但总表允许出现其它阵营（例如 traveller），
// 它们可以正常加载，只是不参与配额与伪装角色的计算。
type Category string

const (
	CategoryTownsfolk     Category = "townsfolk"      // primary-good
	CategoryOutsider      Category = "outsider"       // minor-good
	CategoryMinion        Category = "minion"         // minor-evil
	CategoryDemon         Category = "demon"          // primary-evil
	CategoryEvilTownsfolk Category = "evil townsfolk" // disguised-good
)

// AllCategories returns the known categories in quota order.
func AllCategories() []Category {
	return []Category{
		CategoryTownsfolk,
		CategoryOutsider,
		CategoryMinion,
		CategoryDemon,
		CategoryEvilTownsfolk,
	}
}

func (c Category) IsEvil() bool {
	switch c {
	case CategoryMinion, CategoryDemon, CategoryEvilTownsfolk:
		return true
	default:
		return false
	}
}

// IsGood 仅对善良阵营的两个已知类别返回 true
func (c Category) IsGood() bool {
	return c == CategoryTownsfolk || c == CategoryOutsider
}

// Short 用于错误提示中的简短阵营名
func (c Category) Short() string {
	switch c {
	case CategoryTownsfolk:
		return "TF"
	case CategoryOutsider:
		return "OS"
	case CategoryMinion:
		return "MN"
	case CategoryDemon:
		return "DM"
	case CategoryEvilTownsfolk:
		return "ETF"
	default:
		return string(c)
	}
}

// RoleDefinition 是总表中的一个角色，加载后不再修改
type RoleDefinition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"team"`
	Ability  string   `json:"ability"`

	// nil 表示该阶段不行动
	FirstNightOrder *int `json:"first_night_order,omitempty"`
	OtherNightOrder *int `json:"other_night_order,omitempty"`

	FirstNightReminder string `json:"firstNightReminder,omitempty"`
	OtherNightReminder string `json:"otherNightReminder,omitempty"`

	Reminders []string `json:"reminders,omitempty"`
}

// PromptFor returns the night prompt for the given phase, empty when the role
// has nothing to do that night.
func (r RoleDefinition) PromptFor(firstNight bool) string {
	if firstNight {
		return r.FirstNightReminder
	}

	return r.OtherNightReminder
}

func (r RoleDefinition) PriorityFor(firstNight bool) (int, bool) {
	order := r.OtherNightOrder
	if firstNight {
		order = r.FirstNightOrder
	}

	if order == nil {
		return 0, false
	}

	return *order, true
}

func (r RoleDefinition) String() string {
	return r.Name + " (" + string(r.Category) + ")"
}
