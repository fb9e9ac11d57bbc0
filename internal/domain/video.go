package domain

// Video — запись из каталога. Читаем только поля, нужные для создания комнаты.
type Video struct {
	ID        int64 `db:"id"`
	ChannelID int64 `db:"channel_id"`
	OwnerID   int64 `db:"owner_id"`
}
