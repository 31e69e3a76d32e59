package system

// DriveDescriptor описывает накопитель на момент перечисления.
// Снимок неизменяем: повторное перечисление создаёт новые значения,
// между запусками постоянной идентичности нет.
type DriveDescriptor struct {
	DeviceID    string // платформенный путь: /dev/sda, /dev/disk2
	SizeBytes   uint64
	Model       string
	Filesystem  string // файловая система, если известна
	IsSystem    bool
	Removable   bool
	MountPoints []string
}

// Selected сообщает, выбрано ли устройство вообще.
func (d DriveDescriptor) Selected() bool {
	return d.DeviceID != ""
}

// Mounted сообщает, смонтировано ли устройство или его разделы.
func (d DriveDescriptor) Mounted() bool {
	return len(d.MountPoints) > 0
}
