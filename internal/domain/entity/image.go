package entity

// ImageSource — способ, которым оператор передал изображение.
type ImageSource string

const (
	SourceChooser ImageSource = "chooser" // Явный выбор файла
	SourceDrop    ImageSource = "drop"    // Перетаскивание
)

// Image — текущее изображение сессии с его собственными размерами.
type Image struct {
	Name   string
	Data   []byte
	Format string
	Width  int // ширина в пикселях исходника
	Height int // высота в пикселях исходника
	Source ImageSource
}

// DropTarget хранит кратковременное состояние «над зоной перетаскивания».
type DropTarget struct {
	active bool
}

// Enter включает подсветку зоны.
func (d *DropTarget) Enter() { d.active = true }

// Leave снимает подсветку.
func (d *DropTarget) Leave() { d.active = false }

// Drop снимает подсветку независимо от того, удалось ли принять файл.
func (d *DropTarget) Drop() { d.active = false }

// Active сообщает, подсвечена ли зона.
func (d *DropTarget) Active() bool { return d.active }
