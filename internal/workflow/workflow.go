package workflow

import "errors"

// OrderStatus 订单履约状态
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// IsValid 边界校验：反序列化/绑定后调用，拒绝未知状态值
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string { return string(s) }

// PaymentStatus 支付状态（与履约状态相互独立）
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

func (p PaymentStatus) String() string { return string(p) }

// Transition 一条合法的状态变更及其守卫条件
type Transition struct {
	From               OrderStatus     `json:"from"`
	To                 OrderStatus     `json:"to"`
	Label              string          `json:"label"`
	Description        string          `json:"description"`
	RequiresAdminNotes bool            `json:"requires_admin_notes"`
	RequiresTracking   bool            `json:"requires_tracking"`
	Automatable        bool            `json:"automatable"`
	// PaymentStatuses 非空时仅在当前支付状态命中集合时开放该变更
	PaymentStatuses []PaymentStatus `json:"payment_statuses,omitempty"`
}

func (t Transition) allowsPayment(p PaymentStatus) bool {
	if len(t.PaymentStatuses) == 0 {
		return true
	}
	for _, ps := range t.PaymentStatuses {
		if ps == p {
			return true
		}
	}
	return false
}

var (
	ErrIllegalTransition  = errors.New("illegal order status transition")
	ErrAdminNotesRequired = errors.New("admin notes required for this transition")
	ErrTrackingRequired   = errors.New("tracking number required for this transition")
)

// defaultTransitions 固定变更表；delivered 无出边，cancelled -> pending 为有意保留的恢复路径
var defaultTransitions = []Transition{
	{From: StatusPending, To: StatusConfirmed, Label: "Confirm Order", Description: "Confirm the order and reserve stock.", Automatable: true},
	{From: StatusPending, To: StatusCancelled, Label: "Cancel Order", Description: "Cancel before confirmation. Requires a note explaining why.", RequiresAdminNotes: true},
	{From: StatusConfirmed, To: StatusProcessing, Label: "Start Processing", Description: "Move the order into fulfilment.", Automatable: true},
	{From: StatusConfirmed, To: StatusCancelled, Label: "Cancel Order", Description: "Cancel a confirmed order. Requires a note explaining why.", RequiresAdminNotes: true},
	{From: StatusProcessing, To: StatusShipped, Label: "Ship Order", Description: "Hand the parcel to the carrier. Requires a tracking number.", RequiresTracking: true, Automatable: true},
	{From: StatusProcessing, To: StatusCancelled, Label: "Cancel Order", Description: "Cancel during fulfilment. Requires a note explaining why.", RequiresAdminNotes: true},
	{From: StatusShipped, To: StatusDelivered, Label: "Mark Delivered", Description: "Carrier confirmed delivery.", Automatable: true},
	{From: StatusCancelled, To: StatusPending, Label: "Restore Order", Description: "Reopen a cancelled order. Requires a note explaining why.", RequiresAdminNotes: true},
}

// Workflow 不可变变更表上的纯查询；所有方法无副作用、对枚举全集有定义
type Workflow struct {
	transitions []Transition
}

// New 基于给定变更表构建 Workflow；表在构建后不再变化
func New(transitions []Transition) *Workflow {
	ts := make([]Transition, len(transitions))
	copy(ts, transitions)
	return &Workflow{transitions: ts}
}

// Default 线上使用的固定订单状态机
var Default = New(defaultTransitions)

// AvailableTransitions 列出当前状态下开放的变更，保持定义顺序
func (w *Workflow) AvailableTransitions(status OrderStatus, payment PaymentStatus) []Transition {
	// 非 nil 空切片：终态序列化为 [] 而非 null
	out := []Transition{}
	for _, t := range w.transitions {
		if t.From != status {
			continue
		}
		if !t.allowsPayment(payment) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CanTransitionTo 判断 target 是否为当前状态的合法下一状态。
// 读写之间存在间隔时，持久化前必须重新校验（本包不提供并发控制）。
func (w *Workflow) CanTransitionTo(status, target OrderStatus, payment PaymentStatus) bool {
	_, ok := w.find(status, target, payment)
	return ok
}

// NextAutomaticStatus 返回首个 automatable 变更的目标状态；仅作建议，本包不触发执行
func (w *Workflow) NextAutomaticStatus(status OrderStatus, payment PaymentStatus) (OrderStatus, bool) {
	for _, t := range w.transitions {
		if t.From == status && t.Automatable && t.allowsPayment(payment) {
			return t.To, true
		}
	}
	return "", false
}

// CheckTransition 校验一次变更及其守卫字段，守卫不满足时返回类型化错误。
// 调用方在持久化前调用，避免把字段校验散落在各 UI 层。
func (w *Workflow) CheckTransition(status, target OrderStatus, payment PaymentStatus, adminNotes, trackingNumber string) error {
	t, ok := w.find(status, target, payment)
	if !ok {
		return ErrIllegalTransition
	}
	if t.RequiresAdminNotes && adminNotes == "" {
		return ErrAdminNotesRequired
	}
	if t.RequiresTracking && trackingNumber == "" {
		return ErrTrackingRequired
	}
	return nil
}

func (w *Workflow) find(status, target OrderStatus, payment PaymentStatus) (Transition, bool) {
	for _, t := range w.transitions {
		if t.From == status && t.To == target && t.allowsPayment(payment) {
			return t, true
		}
	}
	return Transition{}, false
}

// progressByStatus 进度投影；cancelled 归零
var progressByStatus = map[OrderStatus]int{
	StatusPending:    20,
	StatusConfirmed:  40,
	StatusProcessing: 60,
	StatusShipped:    80,
	StatusDelivered:  100,
	StatusCancelled:  0,
}

// ProgressPercentage 返回订单进度百分比。
// 未知状态返回 0；状态值应在边界处用 IsValid 拦截，不应流入此处。
func ProgressPercentage(status OrderStatus) int {
	return progressByStatus[status]
}
