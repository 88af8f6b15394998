/*
 * @Description: 独立观看记录模型（观看去重）
 * @Author: 星河
 * @Date: 2025-04-10 19:33:28
 * @LastEditTime: 2025-07-08 11:50:14
 * @LastEditors: 星河
 */
package model

import (
	"database/sql"
	"time"
)

// VideoView 记录一个观看者对某个视频的首次观看。
// 观看者优先以登录用户 ID 识别，匿名观看退化为客户端 IP；
// 匿名记录在该观看者登录后会被"升级"补上用户 ID，而不是新插一条。
type VideoView struct {
	ID        uint          `json:"id"`
	VideoID   uint          `json:"video_id"`
	UserID    sql.NullInt64 `json:"-"`
	IP        string        `json:"ip"`
	ViewedAt  time.Time     `json:"viewed_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
