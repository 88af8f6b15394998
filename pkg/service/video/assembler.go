/*
 * @Description: 视频目录记录与 API 响应体之间的转换
 * @Author: 星河
 * @Date: 2025-03-27 10:15:22
 * @LastEditTime: 2025-08-10 22:04:18
 * @LastEditors: 星河
 */
package video

import (
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
)

// ToResponse 把内部目录记录转换为对外响应体，所有 ID 均编码为公共 ID。
func ToResponse(v *model.Video) (*model.VideoResponse, error) {
	publicID, err := idgen.GeneratePublicID(v.ID, idgen.EntityTypeVideo)
	if err != nil {
		return nil, err
	}
	ownerID, err := idgen.GeneratePublicID(v.OwnerID, idgen.EntityTypeUser)
	if err != nil {
		return nil, err
	}

	resp := &model.VideoResponse{
		ID:          publicID,
		Title:       v.Title,
		Description: v.Description,
		OwnerID:     ownerID,
		FileName:    v.FileName,
		FileSize:    v.FileSize,
		MimeType:    v.MimeType,
		Duration:    v.Duration,
		Status:      v.Status,
		Visibility:  v.Visibility,
		Views:       v.Views,
		CreatedAt:   v.CreatedAt,
	}
	if v.CategoryID.Valid {
		categoryID, err := idgen.GeneratePublicID(uint(v.CategoryID.Int64), idgen.EntityTypeCategory)
		if err != nil {
			return nil, err
		}
		resp.CategoryID = categoryID
	}
	return resp, nil
}
