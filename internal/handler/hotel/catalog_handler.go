package hotel

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
)

// CatalogHandler 酒店目录处理器
type CatalogHandler struct {
	hotelService   *hotelService.HotelService
	bookingService *bookingService.Service
}

// NewCatalogHandler 创建酒店目录处理器
func NewCatalogHandler(hotelSvc *hotelService.HotelService, bookingSvc *bookingService.Service) *CatalogHandler {
	return &CatalogHandler{
		hotelService:   hotelSvc,
		bookingService: bookingSvc,
	}
}

// ListHotels 获取酒店列表
// @Summary 获取酒店列表
// @Tags 酒店目录
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param city query string false "城市"
// @Param keyword query string false "名称或地址关键词"
// @Success 200 {object} response.Response{data=[]hotelService.HotelInfo}
// @Router /api/v1/hotels [get]
func (h *CatalogHandler) ListHotels(c *gin.Context) {
	var req hotelService.HotelListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "查询参数错误")
		return
	}

	hotels, total, err := h.hotelService.GetHotelList(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, hotels, total, req.Page, req.PageSize)
}

// GetHotel 获取酒店详情（含可售房间）
// @Summary 获取酒店详情
// @Tags 酒店目录
// @Produce json
// @Param id path int true "酒店ID"
// @Success 200 {object} response.Response{data=hotelService.HotelInfo}
// @Router /api/v1/hotels/{id} [get]
func (h *CatalogHandler) GetHotel(c *gin.Context) {
	hotelID, ok := handler.ParseID(c, "酒店")
	if !ok {
		return
	}

	info, err := h.hotelService.GetHotelDetail(c.Request.Context(), hotelID)
	handler.MustSucceed(c, err, info)
}

// ListRooms 获取酒店房间，传入入住和离店日期时标注每间房是否可订
// @Summary 获取酒店房间
// @Tags 酒店目录
// @Produce json
// @Param id path int true "酒店ID"
// @Param check_in query string false "入住日期 YYYY-MM-DD"
// @Param check_out query string false "离店日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]hotelService.RoomInfo}
// @Router /api/v1/hotels/{id}/rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	hotelID, ok := handler.ParseID(c, "酒店")
	if !ok {
		return
	}

	withDates := c.Query("check_in") != "" || c.Query("check_out") != ""
	if !withDates {
		rooms, err := h.hotelService.GetRoomList(c.Request.Context(), hotelID)
		handler.MustSucceed(c, err, rooms)
		return
	}

	checkIn, ok := handler.ParseRequiredQueryDate(c, "check_in", "入住日期")
	if !ok {
		return
	}
	checkOut, ok := handler.ParseRequiredQueryDate(c, "check_out", "离店日期")
	if !ok {
		return
	}

	rooms, err := h.hotelService.GetRoomList(c.Request.Context(), hotelID)
	if handler.HandleError(c, err) {
		return
	}

	ids := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	availability, err := h.bookingService.AvailableRooms(c.Request.Context(), ids, checkIn, checkOut)
	if handler.HandleError(c, err) {
		return
	}
	for _, r := range rooms {
		available := availability[r.ID]
		r.Available = &available
	}
	response.Success(c, rooms)
}

// GetRoom 获取房间详情
// @Summary 获取房间详情
// @Tags 酒店目录
// @Produce json
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response{data=hotelService.RoomInfo}
// @Router /api/v1/rooms/{id} [get]
func (h *CatalogHandler) GetRoom(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	info, err := h.hotelService.GetRoomDetail(c.Request.Context(), roomID)
	handler.MustSucceed(c, err, info)
}
