package dashboard

// Options 看板级参数
type Options struct {
	// Title UI 标题（header 左侧展示）
	Title string
	// InitialTab 启动时显示的标签页序号
	InitialTab int
}
