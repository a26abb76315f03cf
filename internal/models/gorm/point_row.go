package gorm

// PointRow is one row of the points table in the SQL backend. Every domain
// column is stored as text, exactly as a spreadsheet cell would hold it;
// RowNo keeps storage order.
type PointRow struct {
	RowNo     uint   `gorm:"column:row_no;primaryKey;autoIncrement"`
	PointID   string `gorm:"column:id;type:varchar(64);index"`
	Name      string `gorm:"column:name;type:text"`
	Lat       string `gorm:"column:lat;type:varchar(32)"`
	Lon       string `gorm:"column:lon;type:varchar(32)"`
	Seasons   string `gorm:"column:seasons;type:text"`
	IsDeleted string `gorm:"column:is_deleted;type:varchar(8);default:'0'"`
	UpdatedAt string `gorm:"column:updated_at;type:varchar(32);autoUpdateTime:false"`
}

// TableName specifies the default table name for GORM
func (PointRow) TableName() string {
	return "points"
}
